package stego

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"testing"

	"bmp-steganography/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

// makeTestBMP encodes an opaque w x h image, which x/image/bmp writes as 24-bit
// with a 54-byte header.
func makeTestBMP(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x * 17) ^ (y * 31)),
				G: uint8((x * 43) + (y * 13)),
				B: uint8((x * 7) ^ (y * 11)),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	require.Equal(t, byte(24), buf.Bytes()[28], "fixture must be 24-bit")
	return buf.Bytes()
}

// embed runs Embed over in-memory buffers.
func embed(t *testing.T, carrier, secret []byte, secretName string) ([]byte, *EmbedResult, error) {
	t.Helper()
	var out bytes.Buffer
	lsb := NewBMPSteganography(&models.StegoConfig{SecretFilename: secretName})
	res, err := lsb.Embed(bytes.NewReader(carrier), bytes.NewReader(secret), int64(len(secret)), &out)
	return out.Bytes(), res, err
}

// extract runs Extract over an in-memory image.
func extract(t *testing.T, stegoImage []byte, config *models.StegoConfig) ([]byte, *ExtractResult, error) {
	t.Helper()
	var out bytes.Buffer
	res, err := NewBMPSteganography(config).Extract(bytes.NewReader(stegoImage), func(string) (io.Writer, error) {
		return &out, nil
	})
	return out.Bytes(), res, err
}
