// Package models contain needed models
package models

// EmbedResponse represents a failed embed request; successful requests stream the image
type EmbedResponse struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	PSNR     float64 `json:"psnr,omitempty"`
	Capacity uint64  `json:"capacity,omitempty"`
}

// ExtractResponse represents a failed extract request; successful requests stream the secret
type ExtractResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	SecretFilename string `json:"secret_filename,omitempty"`
}

// CapacityResponse describes how much an image can carry
type CapacityResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message,omitempty"`
	Width           uint32 `json:"width"`
	Height          uint32 `json:"height"`
	CapacityBytes   uint64 `json:"capacity_bytes"`
	Extension       string `json:"extension"`
	MaxPayloadBytes uint64 `json:"max_payload_bytes"`
}

// ImageMetadata represents metadata about a BMP carrier
type ImageMetadata struct {
	Width         int
	Height        int
	BitsPerPixel  int
	Compression   uint32
	PixelOffset   uint32
	FileSize      uint32 // as declared in the header
	StreamSize    int64  // as measured on the stream
	CapacityBytes uint64
}

// StegoConfig represents configuration for steganography operations
type StegoConfig struct {
	// ExpectedExtension is the extension the decoder insists on unless TrustExtension is set.
	ExpectedExtension string
	// TrustExtension makes the decoder accept whatever extension was embedded.
	TrustExtension bool
	// SecretFilename is used on encode to derive the embedded extension.
	SecretFilename string
	// MinPSNR is the quality floor in dB an embed is expected to meet; 0 disables it.
	MinPSNR float64
}
