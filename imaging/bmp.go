package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"bmp-steganography/models"

	"golang.org/x/image/bmp"
)

// HeaderSize is the size of a BITMAPFILEHEADER followed by a BITMAPINFOHEADER.
const HeaderSize = 54

var (
	ErrNotBMP         = errors.New("not a BMP image")
	ErrUnsupportedBMP = errors.New("unsupported BMP variant")
	ErrTruncatedBMP   = errors.New("truncated BMP image")
)

// IsBMPPath reports whether filename carries a .bmp extension.
func IsBMPPath(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".bmp")
}

// ReadMetadata parses the fixed header fields of a BMP stream and checks that
// golang.org/x/image/bmp can decode its configuration. The stream is left at offset 0.
func ReadMetadata(r io.ReadSeeker) (*models.ImageMetadata, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("measure image: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind image: %w", err)
	}

	var h [HeaderSize]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return nil, fmt.Errorf("%w: header shorter than %d bytes", ErrNotBMP, HeaderSize)
	}
	if h[0] != 'B' || h[1] != 'M' {
		return nil, fmt.Errorf("%w: missing BM signature", ErrNotBMP)
	}

	meta := &models.ImageMetadata{
		FileSize:     binary.LittleEndian.Uint32(h[2:6]),
		PixelOffset:  binary.LittleEndian.Uint32(h[10:14]),
		Width:        int(int32(binary.LittleEndian.Uint32(h[18:22]))),
		Height:       int(int32(binary.LittleEndian.Uint32(h[22:26]))),
		BitsPerPixel: int(binary.LittleEndian.Uint16(h[28:30])),
		Compression:  binary.LittleEndian.Uint32(h[30:34]),
		StreamSize:   size,
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind image: %w", err)
	}
	if _, err := bmp.DecodeConfig(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedBMP, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind image: %w", err)
	}

	if meta.Width > 0 && meta.Height > 0 {
		meta.CapacityBytes = uint64(meta.Width) * uint64(meta.Height) * 3
	}
	return meta, nil
}

// ValidateCarrier accepts only bottom-up, uncompressed 24-bit images whose pixel
// data starts right after the 54-byte header and is fully present.
func ValidateCarrier(meta *models.ImageMetadata) error {
	if meta.BitsPerPixel != 24 {
		return fmt.Errorf("%w: %d bits per pixel, need 24", ErrUnsupportedBMP, meta.BitsPerPixel)
	}
	if meta.Compression != 0 {
		return fmt.Errorf("%w: compression method %d", ErrUnsupportedBMP, meta.Compression)
	}
	if meta.PixelOffset != HeaderSize {
		return fmt.Errorf("%w: pixel data at offset %d, need %d", ErrUnsupportedBMP, meta.PixelOffset, HeaderSize)
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrUnsupportedBMP, meta.Width, meta.Height)
	}
	if uint64(meta.StreamSize) < HeaderSize+meta.CapacityBytes {
		return fmt.Errorf("%w: %d bytes, pixel data needs %d", ErrTruncatedBMP, meta.StreamSize, HeaderSize+meta.CapacityBytes)
	}
	return nil
}

// Inspect is ReadMetadata followed by ValidateCarrier.
func Inspect(r io.ReadSeeker) (*models.ImageMetadata, error) {
	meta, err := ReadMetadata(r)
	if err != nil {
		return nil, err
	}
	if err := ValidateCarrier(meta); err != nil {
		return meta, err
	}
	return meta, nil
}

// InspectBytes runs Inspect over an in-memory image.
func InspectBytes(data []byte) (*models.ImageMetadata, error) {
	return Inspect(bytes.NewReader(data))
}

// PixelData returns everything after the header of an in-memory BMP.
func PixelData(data []byte) ([]byte, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotBMP, len(data))
	}
	return data[HeaderSize:], nil
}
