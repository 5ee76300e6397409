package stego

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteCodec_RoundTripAllValues(t *testing.T) {
	carrier := ByteWindow{0x10, 0x21, 0x32, 0x43, 0x54, 0x65, 0x76, 0x87}
	for v := 0; v <= math.MaxUint8; v++ {
		encoded := EncodeByteToLSB(byte(v), carrier)
		assert.Equal(t, byte(v), DecodeByteFromLSB(encoded), "value %d", v)
	}
}

func TestEncodeByteToLSB_MSBFirst(t *testing.T) {
	var carrier ByteWindow
	got := EncodeByteToLSB(0b10110001, carrier)
	assert.Equal(t, ByteWindow{1, 0, 1, 1, 0, 0, 0, 1}, got)
}

func TestEncodeByteToLSB_KeepsUpperBits(t *testing.T) {
	carrier := ByteWindow{0xFF, 0xFE, 0x00, 0x01, 0xAA, 0x55, 0x80, 0x7F}
	got := EncodeByteToLSB(0x5A, carrier)
	for i := range carrier {
		assert.Equal(t, carrier[i]&0xFE, got[i]&0xFE, "carrier byte %d", i)
	}
}

func TestEncodeByteToLSB_DoesNotAliasInput(t *testing.T) {
	carrier := ByteWindow{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	_ = EncodeByteToLSB(0x00, carrier)
	assert.Equal(t, ByteWindow{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, carrier)
}

func TestUint32Codec_RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 2, 4, 0x80000000, 0x7FFFFFFF, 0xDEADBEEF, math.MaxUint32}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		values = append(values, rng.Uint32())
	}

	var carrier Uint32Window
	for i := range carrier {
		carrier[i] = byte(i * 37)
	}

	for _, v := range values {
		encoded := EncodeUint32ToLSB(v, carrier)
		assert.Equal(t, v, DecodeUint32FromLSB(encoded), "value %#x", v)
		for i := range carrier {
			assert.Equal(t, carrier[i]&0xFE, encoded[i]&0xFE)
		}
	}
}

func TestEncodeUint32ToLSB_MSBFirst(t *testing.T) {
	var carrier Uint32Window
	got := EncodeUint32ToLSB(4, carrier)
	for i, b := range got {
		want := byte(0)
		if i == 29 {
			want = 1
		}
		assert.Equal(t, want, b, "carrier byte %d", i)
	}
}
