// Package stego to implement LSB embedding in 24-bit BMP images
package stego

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"bmp-steganography/models"

	"go.uber.org/zap"
)

const (
	// MagicString opens every embedded record.
	MagicString = "#*"
	// DefaultExtension is what the decoder expects unless told otherwise.
	DefaultExtension = ".txt"
	// MaxExtensionLength bounds a trusted extension read back from an image.
	MaxExtensionLength = 255
)

// EmbedResult summarizes a finished embed
type EmbedResult struct {
	Dimensions    BmpDimensions
	CapacityBytes uint64
	Extension     string
	PayloadSize   uint32
	Consumed      uint64 // carrier bytes that received record bits
	OutputPath    string // set by EncodeFile
}

// ExtractResult summarizes a finished extract
type ExtractResult struct {
	Extension   string
	PayloadSize uint32
	Consumed    uint64
	OutputPath  string // set by DecodeFile
}

// OutputOpener returns the writer for the recovered secret once its extension is known.
type OutputOpener func(extension string) (io.Writer, error)

type BMPSteganography struct {
	config *models.StegoConfig
}

func NewBMPSteganography(config *models.StegoConfig) *BMPSteganography {
	if config == nil {
		config = &models.StegoConfig{}
	}
	return &BMPSteganography{config: config}
}

type step struct {
	stage Stage
	run   func() error
}

// runStages executes steps in order and stops at the first failure.
func runStages(op string, steps []step) error {
	log := Logger().With(zap.String("op", op))
	for _, s := range steps {
		if err := s.run(); err != nil {
			err = atStage(s.stage, err)
			log.Debug("stage failed", zap.String("stage", string(s.stage)), zap.Error(err))
			return err
		}
		log.Debug("stage done", zap.String("stage", string(s.stage)))
	}
	return nil
}

// SecretExtension returns the filename's substring from its last '.' onward.
func SecretExtension(filename string) (string, error) {
	base := filepath.Base(filename)
	idx := strings.LastIndexByte(base, '.')
	if idx < 0 || idx == len(base)-1 {
		return "", formatError(fmt.Sprintf("secret file %q has no extension", filename))
	}
	return base[idx:], nil
}

// CalculateCapacity reads the image dimensions and returns the carrier capacity in bytes.
func (s *BMPSteganography) CalculateCapacity(image io.ReadSeeker) (BmpDimensions, uint64, error) {
	dims, err := ReadDimensions(image)
	if err != nil {
		return BmpDimensions{}, 0, atStage(StageCapacity, err)
	}
	return dims, CapacityBytes(dims), nil
}

// Embed writes image to stego with secret hidden in its pixel LSBs.
// Nothing is written unless the capacity gate passes; after that a failure
// leaves whatever was already written in stego.
func (s *BMPSteganography) Embed(image io.ReadSeeker, secret io.Reader, secretSize int64, stego io.Writer) (*EmbedResult, error) {
	result := &EmbedResult{}
	var tc *Transcoder

	steps := []step{
		{StageValidate, func() error {
			ext, err := SecretExtension(s.config.SecretFilename)
			if err != nil {
				return err
			}
			if len(ext) > MaxExtensionLength {
				return formatError(fmt.Sprintf("extension %q is longer than %d bytes", ext, MaxExtensionLength))
			}
			if secretSize < 0 || secretSize > math.MaxUint32 {
				return newError(KindCapacity, fmt.Sprintf("secret size %d does not fit a 32-bit length", secretSize), nil)
			}
			result.Extension = ext
			result.PayloadSize = uint32(secretSize)
			return nil
		}},
		{StageCapacity, func() error {
			dims, capacity, err := s.CalculateCapacity(image)
			if err != nil {
				return err
			}
			result.Dimensions = dims
			result.CapacityBytes = capacity
			required := RequiredCarrierBytes(uint64(len(MagicString)), uint64(len(result.Extension)), uint64(result.PayloadSize))
			if !HasCapacity(capacity, uint64(len(MagicString)), uint64(len(result.Extension)), uint64(result.PayloadSize)) {
				return newError(KindCapacity, fmt.Sprintf("image %dx%d holds %d carrier bytes, record needs more than %d",
					dims.Width, dims.Height, capacity, required), nil)
			}
			if _, err := image.Seek(0, io.SeekStart); err != nil {
				return ioError("rewind source image", err)
			}
			tc = NewTranscoder(image, stego)
			return nil
		}},
		{StageHeader, func() error { return tc.CopyHeader() }},
		{StageMagic, func() error { return tc.EncodeBytes([]byte(MagicString)) }},
		{StageExtensionSize, func() error { return tc.EncodeUint32(uint32(len(result.Extension))) }},
		{StageExtension, func() error { return tc.EncodeBytes([]byte(result.Extension)) }},
		{StagePayloadSize, func() error { return tc.EncodeUint32(result.PayloadSize) }},
		{StagePayload, func() error { return tc.EncodeFrom(secret, result.PayloadSize) }},
		{StageRemainder, func() error {
			if err := tc.CopyRemainder(); err != nil {
				return err
			}
			return tc.Flush()
		}},
	}

	if err := runStages("embed", steps); err != nil {
		// push out what was produced so the partial file matches the failing stage
		if tc != nil {
			_ = tc.Flush()
		}
		return nil, err
	}

	result.Consumed = tc.Consumed()
	Logger().Info("secret embedded",
		zap.String("extension", result.Extension),
		zap.Uint32("payload_bytes", result.PayloadSize),
		zap.Uint64("capacity_bytes", result.CapacityBytes),
		zap.Uint64("consumed_bytes", result.Consumed))
	return result, nil
}

// Extract recovers the hidden secret from stego and streams it into the writer
// returned by open.
func (s *BMPSteganography) Extract(stego io.ReadSeeker, open OutputOpener) (*ExtractResult, error) {
	result := &ExtractResult{}
	var tc *Transcoder
	var extLen uint32

	steps := []step{
		{StageHeader, func() error {
			if _, err := stego.Seek(HeaderSize, io.SeekStart); err != nil {
				return ioError("seek past image header", err)
			}
			tc = NewTranscoder(stego, nil)
			return nil
		}},
		{StageMagic, func() error {
			magic, err := tc.DecodeBytes(len(MagicString))
			if err != nil {
				return err
			}
			if string(magic) != MagicString {
				return formatError("magic marker not found: not a stego image, or wrong tool")
			}
			return nil
		}},
		{StageExtensionSize, func() error {
			n, err := tc.DecodeUint32()
			if err != nil {
				return err
			}
			if err := s.checkExtensionSize(n); err != nil {
				return err
			}
			extLen = n
			return nil
		}},
		{StageExtension, func() error {
			raw, err := tc.DecodeBytes(int(extLen))
			if err != nil {
				return err
			}
			ext := string(raw)
			if err := s.checkExtension(ext); err != nil {
				return err
			}
			result.Extension = ext
			return nil
		}},
		{StagePayloadSize, func() error {
			n, err := tc.DecodeUint32()
			if err != nil {
				return err
			}
			result.PayloadSize = n
			return nil
		}},
		{StagePayload, func() error {
			w, err := open(result.Extension)
			if err != nil {
				var se *StageError
				if errors.As(err, &se) {
					return se
				}
				return newError(KindFileOpen, "open output for recovered secret", err)
			}
			return tc.DecodeTo(w, result.PayloadSize)
		}},
	}

	if err := runStages("extract", steps); err != nil {
		return nil, err
	}

	result.Consumed = tc.Consumed()
	Logger().Info("secret extracted",
		zap.String("extension", result.Extension),
		zap.Uint32("payload_bytes", result.PayloadSize))
	return result, nil
}

func (s *BMPSteganography) expectedExtension() string {
	if s.config.ExpectedExtension != "" {
		return s.config.ExpectedExtension
	}
	return DefaultExtension
}

func (s *BMPSteganography) checkExtensionSize(n uint32) error {
	if s.config.TrustExtension {
		if n == 0 || n > MaxExtensionLength {
			return formatError(fmt.Sprintf("embedded extension size %d is out of range", n))
		}
		return nil
	}
	want := len(s.expectedExtension())
	if int64(n) != int64(want) {
		return formatError(fmt.Sprintf("embedded extension size %d, expected %d for %q", n, want, s.expectedExtension()))
	}
	return nil
}

func (s *BMPSteganography) checkExtension(ext string) error {
	if s.config.TrustExtension {
		if ext[0] != '.' || strings.ContainsAny(ext, `/\`) || strings.ContainsRune(ext, 0) {
			return formatError(fmt.Sprintf("embedded extension %q is not a file extension", ext))
		}
		return nil
	}
	if ext != s.expectedExtension() {
		return formatError(fmt.Sprintf("embedded extension %q, expected %q", ext, s.expectedExtension()))
	}
	return nil
}
