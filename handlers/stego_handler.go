// Package handlers is made to handle requests
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"bmp-steganography/imaging"
	"bmp-steganography/models"
	"bmp-steganography/stego"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StegoHandler struct {
	maxUploadBytes int64
	defaults       models.StegoConfig
	log            *zap.Logger
}

func NewStegoHandler(maxUploadBytes int64, defaults models.StegoConfig, log *zap.Logger) *StegoHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StegoHandler{
		maxUploadBytes: maxUploadBytes,
		defaults:       defaults,
		log:            log,
	}
}

func (h *StegoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "BMP steganography API is running",
		"version": "1.0.0",
	})
}

// statusFor maps a stego error to an HTTP status: bad input is the client's fault.
func statusFor(err error) int {
	switch stego.KindOf(err) {
	case stego.KindFormat, stego.KindCapacity:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseUpload caps the request body at maxUploadBytes and parses the multipart form.
// On failure it returns the status to answer with.
func (h *StegoHandler) parseUpload(c *gin.Context) (int, error) {
	if c.Request.ContentLength > h.maxUploadBytes {
		return http.StatusRequestEntityTooLarge,
			fmt.Errorf("request body of %d bytes exceeds the %d byte upload limit", c.Request.ContentLength, h.maxUploadBytes)
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge, err
		}
		return http.StatusBadRequest, err
	}
	return http.StatusOK, nil
}

func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

func (h *StegoHandler) readUpload(c *gin.Context, field string) ([]byte, string, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

func (h *StegoHandler) EmbedSecret(c *gin.Context) {
	if status, err := h.parseUpload(c); err != nil {
		c.JSON(status, models.EmbedResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
		})
		return
	}

	imageData, imageName, err := h.readUpload(c, "image_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.EmbedResponse{
			Success: false,
			Message: "Image file is required",
		})
		return
	}

	if !imaging.IsBMPPath(imageName) {
		c.JSON(http.StatusBadRequest, models.EmbedResponse{
			Success: false,
			Message: "Invalid image file format. Only BMP files are supported",
		})
		return
	}

	if _, err := imaging.InspectBytes(imageData); err != nil {
		c.JSON(http.StatusBadRequest, models.EmbedResponse{
			Success: false,
			Message: fmt.Sprintf("Unsupported image: %v", err),
		})
		return
	}

	secretData, secretName, err := h.readUpload(c, "secret_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.EmbedResponse{
			Success: false,
			Message: "Secret file is required",
		})
		return
	}

	config := &models.StegoConfig{SecretFilename: secretName}
	lsb := stego.NewBMPSteganography(config)

	// buffered so a failed embed never reaches the client half-written
	var out bytes.Buffer
	result, err := lsb.Embed(bytes.NewReader(imageData), bytes.NewReader(secretData), int64(len(secretData)), &out)
	if err != nil {
		h.log.Warn("embed failed", zap.String("image", imageName), zap.Error(err))
		c.JSON(statusFor(err), models.EmbedResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to embed secret data: %v", err),
		})
		return
	}

	stegoImage := out.Bytes()
	psnr, err := imaging.PixelPSNR(imageData, stegoImage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.EmbedResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to measure PSNR: %v", err),
		})
		return
	}

	quality := "ok"
	if !imaging.MeetsPSNR(psnr, h.defaults.MinPSNR) {
		quality = "low"
		h.log.Warn("stego image below quality floor", zap.String("image", imageName),
			zap.Float64("psnr_db", psnr), zap.Float64("min_psnr_db", h.defaults.MinPSNR))
	}

	baseFilename := strings.TrimSuffix(imageName, filepath.Ext(imageName))
	outputFilename := fmt.Sprintf("%s_stego.bmp", baseFilename)

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", attachment(outputFilename))

	c.Header("X-Stego-Method", "BMP LSB")
	c.Header("X-Stego-Message", "Secret file successfully embedded in BMP pixel data")
	c.Header("X-Stego-Capacity", strconv.FormatUint(result.CapacityBytes, 10))
	c.Header("X-Stego-Consumed", strconv.FormatUint(result.Consumed, 10))
	c.Header("X-Stego-PSNR", formatPSNR(psnr))
	c.Header("X-Stego-Quality", quality)

	c.Data(http.StatusOK, "image/bmp", stegoImage)
}

func (h *StegoHandler) ExtractSecret(c *gin.Context) {
	if status, err := h.parseUpload(c); err != nil {
		c.JSON(status, models.ExtractResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
		})
		return
	}

	stegoData, stegoName, err := h.readUpload(c, "stego_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ExtractResponse{
			Success: false,
			Message: "Stego image file is required",
		})
		return
	}

	if !imaging.IsBMPPath(stegoName) {
		c.JSON(http.StatusBadRequest, models.ExtractResponse{
			Success: false,
			Message: "Invalid image file format. Only BMP files are supported for extraction",
		})
		return
	}

	if _, err := imaging.InspectBytes(stegoData); err != nil {
		c.JSON(http.StatusBadRequest, models.ExtractResponse{
			Success: false,
			Message: fmt.Sprintf("Unsupported image: %v", err),
		})
		return
	}

	config := h.defaults
	if v := c.PostForm("trust_extension"); v != "" {
		config.TrustExtension = v == "true"
	}
	if v := c.PostForm("expected_extension"); v != "" {
		config.ExpectedExtension = v
	}

	var secret bytes.Buffer
	lsb := stego.NewBMPSteganography(&config)
	result, err := lsb.Extract(bytes.NewReader(stegoData), func(string) (io.Writer, error) {
		return &secret, nil
	})
	if err != nil {
		h.log.Warn("extract failed", zap.String("image", stegoName), zap.Error(err))
		c.JSON(statusFor(err), models.ExtractResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to extract secret data: %v", err),
		})
		return
	}

	secretFilename := stego.DefaultDecodeName + result.Extension

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", attachment(secretFilename))
	c.Header("X-Stego-Extension", result.Extension)

	c.Data(http.StatusOK, "application/octet-stream", secret.Bytes())
}

func (h *StegoHandler) Capacity(c *gin.Context) {
	if status, err := h.parseUpload(c); err != nil {
		c.JSON(status, models.CapacityResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
		})
		return
	}

	imageData, _, err := h.readUpload(c, "image_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.CapacityResponse{
			Success: false,
			Message: "Image file is required",
		})
		return
	}

	meta, err := imaging.InspectBytes(imageData)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.CapacityResponse{
			Success: false,
			Message: fmt.Sprintf("Unsupported image: %v", err),
		})
		return
	}

	ext := c.PostForm("extension")
	if ext == "" {
		ext = stego.DefaultExtension
	}

	c.JSON(http.StatusOK, models.CapacityResponse{
		Success:         true,
		Width:           uint32(meta.Width),
		Height:          uint32(meta.Height),
		CapacityBytes:   meta.CapacityBytes,
		Extension:       ext,
		MaxPayloadBytes: stego.MaxPayloadBytes(meta.CapacityBytes, uint64(len(ext))),
	})
}

func formatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return strconv.FormatFloat(psnr, 'f', 2, 64)
}
