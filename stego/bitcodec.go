package stego

// ByteWindow is the carrier span holding one hidden byte.
type ByteWindow [8]byte

// Uint32Window is the carrier span holding one hidden 32-bit integer.
type Uint32Window [32]byte

// EncodeByteToLSB stores b in the least significant bits of the window, MSB first.
// The upper 7 bits of every carrier byte are left untouched.
func EncodeByteToLSB(b byte, carrier ByteWindow) ByteWindow {
	for i := range carrier {
		bit := (b >> (7 - i)) & 1
		carrier[i] = (carrier[i] & 0xFE) | bit
	}
	return carrier
}

// DecodeByteFromLSB rebuilds the byte stored by EncodeByteToLSB.
func DecodeByteFromLSB(carrier ByteWindow) byte {
	var b byte
	for i := range carrier {
		b = (b << 1) | (carrier[i] & 1)
	}
	return b
}

// EncodeUint32ToLSB stores v in the least significant bits of the window, bit 31 first.
func EncodeUint32ToLSB(v uint32, carrier Uint32Window) Uint32Window {
	for i := range carrier {
		bit := byte((v >> (31 - i)) & 1)
		carrier[i] = (carrier[i] & 0xFE) | bit
	}
	return carrier
}

// DecodeUint32FromLSB rebuilds the value stored by EncodeUint32ToLSB.
func DecodeUint32FromLSB(carrier Uint32Window) uint32 {
	var v uint32
	for i := range carrier {
		v = (v << 1) | uint32(carrier[i]&1)
	}
	return v
}
