package stego

import (
	"encoding/binary"
	"io"
)

const (
	// HeaderSize is the BMP header copied verbatim ahead of the pixel data.
	HeaderSize = 54

	widthOffset     = 18
	bytesPerPixel   = 3
	lengthFieldSize = 4 // extension and payload lengths are uint32
	bitsPerByte     = 8
)

// BmpDimensions are the pixel dimensions read from a BMP header
type BmpDimensions struct {
	Width  uint32
	Height uint32
}

// ReadDimensions reads width and height from offsets 18 and 22 of the header.
// No other header field is interpreted.
func ReadDimensions(r io.ReadSeeker) (BmpDimensions, error) {
	if _, err := r.Seek(widthOffset, io.SeekStart); err != nil {
		return BmpDimensions{}, ioError("seek to image dimensions", err)
	}

	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return BmpDimensions{}, ioError("read image dimensions", err)
	}

	return BmpDimensions{
		Width:  binary.LittleEndian.Uint32(buf[0:4]),
		Height: binary.LittleEndian.Uint32(buf[4:8]),
	}, nil
}

// CapacityBytes is the number of carrier bytes in the pixel data.
func CapacityBytes(d BmpDimensions) uint64 {
	return uint64(d.Width) * uint64(d.Height) * bytesPerPixel
}

// CapacityBits is the number of payload bits the image can hold, one per carrier byte.
func CapacityBits(d BmpDimensions) uint64 {
	return CapacityBytes(d)
}

// RequiredCarrierBytes is the carrier budget the admission gate demands for a record.
// The record size in bits is multiplied by 8 again, leaving a wide margin over the
// 8 carrier bytes per record byte actually consumed.
func RequiredCarrierBytes(magicLen, extnLen, payloadLen uint64) uint64 {
	recordBits := (magicLen + lengthFieldSize + extnLen + lengthFieldSize + payloadLen) * bitsPerByte
	return recordBits * bitsPerByte
}

// RecordCarrierBytes is the number of carrier bytes the record really occupies.
func RecordCarrierBytes(magicLen, extnLen, payloadLen uint64) uint64 {
	return (magicLen + lengthFieldSize + extnLen + lengthFieldSize + payloadLen) * bitsPerByte
}

// HasCapacity reports whether the image can take the record. Equality is rejected.
func HasCapacity(capacityBytes, magicLen, extnLen, payloadLen uint64) bool {
	return capacityBytes > RequiredCarrierBytes(magicLen, extnLen, payloadLen)
}

// MaxPayloadBytes is the largest payload for which HasCapacity still holds.
func MaxPayloadBytes(capacityBytes, extnLen uint64) uint64 {
	if capacityBytes == 0 {
		return 0
	}
	perByte := uint64(bitsPerByte * bitsPerByte)
	maxRecord := (capacityBytes - 1) / perByte
	overhead := uint64(len(MagicString)) + lengthFieldSize + extnLen + lengthFieldSize
	if maxRecord < overhead {
		return 0
	}
	return maxRecord - overhead
}
