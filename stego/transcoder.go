package stego

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const chunkSize = 4096

// Transcoder moves carrier bytes from src to dest, hiding or recovering
// payload bits on the way. dest is nil when decoding.
type Transcoder struct {
	src      *bufio.Reader
	dest     *bufio.Writer
	consumed uint64
}

func NewTranscoder(src io.Reader, dest io.Writer) *Transcoder {
	t := &Transcoder{src: bufio.NewReader(src)}
	if dest != nil {
		t.dest = bufio.NewWriter(dest)
	}
	return t
}

// Consumed is the number of carrier bytes that received payload bits.
func (t *Transcoder) Consumed() uint64 {
	return t.consumed
}

// CopyHeader copies the 54 header bytes verbatim.
func (t *Transcoder) CopyHeader() error {
	var header [HeaderSize]byte
	if err := t.readCarrier(header[:], "header"); err != nil {
		return err
	}
	return t.write(header[:])
}

// CopyRemainder copies the rest of the source unchanged. Reaching EOF is success.
func (t *Transcoder) CopyRemainder() error {
	if t.dest == nil {
		return ioError("transcoder has no destination", nil)
	}
	if _, err := io.Copy(t.dest, t.src); err != nil {
		return ioError("copy remaining image data", err)
	}
	return nil
}

// EncodeBytes hides p, consuming 8 carrier bytes per byte.
func (t *Transcoder) EncodeBytes(p []byte) error {
	for _, b := range p {
		if err := t.encodeByte(b); err != nil {
			return err
		}
	}
	return nil
}

// EncodeFrom hides exactly n bytes read from r.
func (t *Transcoder) EncodeFrom(r io.Reader, n uint32) error {
	buf := make([]byte, chunkSize)
	remaining := uint64(n)
	for remaining > 0 {
		want := uint64(len(buf))
		if remaining < want {
			want = remaining
		}
		got, err := io.ReadFull(r, buf[:want])
		if err != nil {
			return ioError(fmt.Sprintf("secret ended after %d of %d bytes", uint64(n)-remaining+uint64(got), n), err)
		}
		if err := t.EncodeBytes(buf[:got]); err != nil {
			return err
		}
		remaining -= uint64(got)
	}
	return nil
}

// EncodeUint32 hides v in the next 32 carrier bytes.
func (t *Transcoder) EncodeUint32(v uint32) error {
	var w Uint32Window
	if err := t.readCarrier(w[:], "length field"); err != nil {
		return err
	}
	w = EncodeUint32ToLSB(v, w)
	t.consumed += uint64(len(w))
	return t.write(w[:])
}

// DecodeBytes recovers n hidden bytes.
func (t *Transcoder) DecodeBytes(n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		b, err := t.decodeByte()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// DecodeTo recovers n hidden bytes and writes them to w as they are produced.
func (t *Transcoder) DecodeTo(w io.Writer, n uint32) error {
	out := bufio.NewWriterSize(w, chunkSize)
	for i := uint32(0); i < n; i++ {
		b, err := t.decodeByte()
		if err != nil {
			return err
		}
		if err := out.WriteByte(b); err != nil {
			return ioError("write recovered byte", err)
		}
	}
	if err := out.Flush(); err != nil {
		return ioError("flush recovered data", err)
	}
	return nil
}

// DecodeUint32 recovers a 32-bit integer from the next 32 carrier bytes.
func (t *Transcoder) DecodeUint32() (uint32, error) {
	var w Uint32Window
	if err := t.readCarrier(w[:], "length field"); err != nil {
		return 0, err
	}
	t.consumed += uint64(len(w))
	return DecodeUint32FromLSB(w), nil
}

// Flush pushes buffered output to the destination.
func (t *Transcoder) Flush() error {
	if t.dest == nil {
		return nil
	}
	if err := t.dest.Flush(); err != nil {
		return ioError("flush output image", err)
	}
	return nil
}

func (t *Transcoder) encodeByte(b byte) error {
	var w ByteWindow
	if err := t.readCarrier(w[:], "carrier"); err != nil {
		return err
	}
	w = EncodeByteToLSB(b, w)
	t.consumed += uint64(len(w))
	return t.write(w[:])
}

func (t *Transcoder) decodeByte() (byte, error) {
	var w ByteWindow
	if err := t.readCarrier(w[:], "carrier"); err != nil {
		return 0, err
	}
	t.consumed += uint64(len(w))
	return DecodeByteFromLSB(w), nil
}

func (t *Transcoder) readCarrier(p []byte, what string) error {
	if _, err := io.ReadFull(t.src, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ioError(fmt.Sprintf("image ended while reading %s after %d carrier bytes", what, t.consumed), err)
		}
		return ioError("read "+what, err)
	}
	return nil
}

func (t *Transcoder) write(p []byte) error {
	if t.dest == nil {
		return nil
	}
	if _, err := t.dest.Write(p); err != nil {
		return ioError("write output image", err)
	}
	return nil
}
