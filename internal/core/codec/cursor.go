package codec

import (
	"bytes"
	"fmt"
)

// reader is a bounds-checked cursor over an inbound buffer.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

// next consumes exactly n bytes. The returned slice aliases the buffer.
func (r *reader) next(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, %d left", ErrBufferUnderrun, n, r.off, r.remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// until consumes everything up to and including delim, returning the bytes before it.
func (r *reader) until(delim byte) ([]byte, error) {
	i := bytes.IndexByte(r.buf[r.off:], delim)
	if i < 0 {
		return nil, fmt.Errorf("%w: no terminator after offset %d", ErrBufferUnderrun, r.off)
	}
	b := r.buf[r.off : r.off+i]
	r.off += i + 1
	return b, nil
}

type writer struct {
	buf []byte
}

func (w *writer) write(b ...byte) { w.buf = append(w.buf, b...) }

func (w *writer) len() int { return len(w.buf) }
