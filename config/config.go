// Package config loads the YAML configuration shared by the CLI and the API server
package config

import (
	"fmt"
	"os"
	"strings"

	"bmp-steganography/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Address      string   `yaml:"address"`
	AllowOrigins []string `yaml:"allow_origins"`
	MaxUploadMB  int64    `yaml:"max_upload_mb"`
}

// StegoConfig holds the defaults of encode and decode runs
type StegoConfig struct {
	OutputName        string `yaml:"output_name"`        // stego image written by encode
	DecodeName        string `yaml:"decode_name"`        // recovered secret, extension appended
	ExpectedExtension string `yaml:"expected_extension"` // what decode insists on
	TrustExtension    bool   `yaml:"trust_extension"`    // accept any embedded extension instead
	// MinPSNR is the quality floor in dB below which a finished embed is logged
	// as a warning. Zero disables the check.
	MinPSNR float64 `yaml:"min_psnr"`
}

// LogConfig selects the zap logger
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Stego  StegoConfig  `yaml:"stego"`
	Log    LogConfig    `yaml:"log"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			AllowOrigins: []string{"http://localhost:3000"},
			MaxUploadMB:  32,
		},
		Stego: StegoConfig{
			OutputName:        "stego.bmp",
			DecodeName:        "decode",
			ExpectedExtension: ".txt",
			MinPSNR:           40,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads filename over the defaults. An empty filename yields the defaults.
// PORT in the environment overrides the port of server.address.
func Load(filename string) (*Config, error) {
	conf := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, conf); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", filename, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		host := conf.Server.Address
		if i := strings.LastIndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		conf.Server.Address = host + ":" + port
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) Validate() error {
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if ext := c.Stego.ExpectedExtension; ext != "" && !strings.HasPrefix(ext, ".") {
		return fmt.Errorf("stego.expected_extension must start with '.', got %q", ext)
	}
	if c.Stego.MinPSNR < 0 {
		return fmt.Errorf("stego.min_psnr must not be negative, got %g", c.Stego.MinPSNR)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Save writes the configuration as YAML.
func Save(filename string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o600)
}

// StegoOptions turns the decode defaults into the codec configuration.
func (c *Config) StegoOptions() *models.StegoConfig {
	return &models.StegoConfig{
		ExpectedExtension: c.Stego.ExpectedExtension,
		TrustExtension:    c.Stego.TrustExtension,
		MinPSNR:           c.Stego.MinPSNR,
	}
}

// NewLogger builds the zap logger described by the log section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
