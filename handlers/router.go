package handlers

import (
	"bmp-steganography/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the API routes behind CORS.
func NewRouter(conf *config.Config, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = conf.Server.AllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.ExposeHeaders = []string{"X-Stego-PSNR", "X-Stego-Quality", "X-Stego-Capacity", "X-Stego-Consumed", "X-Stego-Extension", "Content-Disposition"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	stegoHandler := NewStegoHandler(conf.Server.MaxUploadMB<<20, *conf.StegoOptions(), log)

	api := router.Group("/api/v1")
	{
		api.GET("/health", stegoHandler.HealthCheck)

		stego := api.Group("/stego")
		{
			stego.POST("/embed", stegoHandler.EmbedSecret)
			stego.POST("/extract", stegoHandler.ExtractSecret)
			stego.POST("/capacity", stegoHandler.Capacity)
		}
	}

	return router
}
