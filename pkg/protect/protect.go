// Package protect implements the byte cipher used by programs saved with
// SAVE "name",P. The transform is length-preserving and cycles every 143
// bytes.
package protect

import (
	"io"

	"github.com/antibyte/gwbasic/pkg/logger"
)

var (
	key13 = [13]byte{0xa9, 0x84, 0x8d, 0xcd, 0x75, 0x83, 0x43, 0x63, 0x24, 0x83, 0x19, 0xf7, 0x9a}
	key11 = [11]byte{0x1e, 0x1d, 0xc4, 0x77, 0x26, 0x97, 0xe0, 0x74, 0x59, 0x88, 0x7c}
)

// Period is the length after which the key schedule repeats.
const Period = 13 * 11

func decodeByte(v byte, i int) byte {
	v -= byte(11 - i%11)
	v ^= key13[i%13]
	v ^= key11[i%11]
	v += byte(13 - i%13)
	return v
}

func encodeByte(v byte, i int) byte {
	v -= byte(13 - i%13)
	v ^= key13[i%13]
	v ^= key11[i%11]
	v += byte(11 - i%11)
	return v
}

// Decode deciphers src into dst, which must be at least as long as src.
// dst and src may overlap entirely.
func Decode(dst, src []byte) {
	var c state
	c.decode(dst, src)
}

// Encode enciphers src into dst, which must be at least as long as src.
// dst and src may overlap entirely.
func Encode(dst, src []byte) {
	var c state
	c.encode(dst, src)
}

// state carries the key position across calls.
type state struct {
	index int
}

func (c *state) decode(dst, src []byte) {
	for n, v := range src {
		dst[n] = decodeByte(v, c.index)
		c.index = (c.index + 1) % Period
	}
}

func (c *state) encode(dst, src []byte) {
	for n, v := range src {
		dst[n] = encodeByte(v, c.index)
		c.index = (c.index + 1) % Period
	}
}

// Reader deciphers a protected stream as it is read.
type Reader struct {
	r io.Reader
	state
}

// NewReader returns a Reader that deciphers r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.decode(p[:n], p[:n])
	return n, err
}

// Writer enciphers everything written to it.
type Writer struct {
	w   io.Writer
	buf []byte
	state
}

// NewWriter returns a Writer that enciphers into w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (pw *Writer) Write(p []byte) (int, error) {
	if cap(pw.buf) < len(p) {
		pw.buf = make([]byte, len(p))
	}
	buf := pw.buf[:len(p)]
	start := pw.index
	pw.encode(buf, p)

	n, err := pw.w.Write(buf)
	if n < len(p) {
		// keep the key position in step with what was actually written
		pw.index = (start + n) % Period
		if err == nil {
			err = io.ErrShortWrite
		}
		logger.Debug(logger.AreaCipher, "[PROTECT] short write: %d of %d bytes", n, len(p))
	}
	return n, err
}
