package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func encodeBMP(t *testing.T, w, h int, alpha uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 3), B: uint8(x ^ y), A: alpha})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	return buf.Bytes()
}

func TestInspect_24Bit(t *testing.T) {
	data := encodeBMP(t, 100, 100, 255)

	meta, err := InspectBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 100, meta.Width)
	assert.Equal(t, 100, meta.Height)
	assert.Equal(t, 24, meta.BitsPerPixel)
	assert.Equal(t, uint32(0), meta.Compression)
	assert.Equal(t, uint32(HeaderSize), meta.PixelOffset)
	assert.Equal(t, uint64(30000), meta.CapacityBytes)
	assert.Equal(t, int64(len(data)), meta.StreamSize)
}

func TestInspect_Rejects(t *testing.T) {
	valid := encodeBMP(t, 20, 20, 255)

	truncated := valid[:len(valid)-100]

	noSignature := append([]byte{}, valid...)
	noSignature[0] = 'X'

	compressed := append([]byte{}, valid...)
	binary.LittleEndian.PutUint32(compressed[30:34], 1)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"too short", []byte("BM"), ErrNotBMP},
		{"missing signature", noSignature, ErrNotBMP},
		{"32-bit with alpha", encodeBMP(t, 20, 20, 128), ErrUnsupportedBMP},
		{"compressed", compressed, ErrUnsupportedBMP},
		{"truncated pixels", truncated, ErrTruncatedBMP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InspectBytes(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestIsBMPPath(t *testing.T) {
	assert.True(t, IsBMPPath("beautiful.bmp"))
	assert.True(t, IsBMPPath("/a/b/UPPER.BMP"))
	assert.False(t, IsBMPPath("image.png"))
	assert.False(t, IsBMPPath("bmp"))
}

func TestCalculatePSNR(t *testing.T) {
	a := []byte{10, 20, 30, 40}

	assert.True(t, math.IsInf(CalculatePSNR(a, a), 1))
	assert.Equal(t, 0.0, CalculatePSNR(a, a[:2]))
	assert.Equal(t, 0.0, CalculatePSNR(nil, nil))

	// every sample off by one: MSE = 1, PSNR = 20*log10(255)
	b := []byte{11, 21, 31, 41}
	assert.InDelta(t, 48.13, CalculatePSNR(a, b), 0.01)
}

func TestMeetsPSNR(t *testing.T) {
	tests := []struct {
		name  string
		psnr  float64
		minDB float64
		want  bool
	}{
		{"identical images", math.Inf(1), 40, true},
		{"above floor", 51.2, 40, true},
		{"on floor", 40, 40, true},
		{"below floor", 39.9, 40, false},
		{"floor disabled", 3, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MeetsPSNR(tt.psnr, tt.minDB))
		})
	}
}

func TestPixelPSNR(t *testing.T) {
	original := encodeBMP(t, 10, 10, 255)
	changed := append([]byte{}, original...)
	changed[HeaderSize] ^= 1

	psnr, err := PixelPSNR(original, changed)
	require.NoError(t, err)
	assert.Greater(t, psnr, 60.0)
	assert.True(t, MeetsPSNR(psnr, 40))

	_, err = PixelPSNR(original[:10], changed)
	assert.True(t, errors.Is(err, ErrNotBMP))
}
