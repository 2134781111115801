// Package reqhead implements the fixed-capacity header buffer and the
// reader that fills it from a client connection, one read syscall at a
// time, until the CRLFCRLF terminator is seen or the buffer is full.
package reqhead

import (
	"errors"
	"io"
)

// Max is the hard ceiling on header size (HEADER_MAX in spec.md §3).
// The buffer never grows past it; a header that doesn't terminate
// within Max bytes is rejected as too large.
const Max = 4096

var terminator = []byte("\r\n\r\n")

// Errors returned by Fill. The caller (the connection worker) maps
// these onto the status codes in spec.md §4.1.
var (
	// ErrTooLarge means the buffer filled before CRLFCRLF appeared.
	ErrTooLarge = errors.New("reqhead: header too large")
	// ErrBadRequest means the connection reached EOF after fewer than
	// two bytes.
	ErrBadRequest = errors.New("reqhead: empty request")
)

// Buffer is a fixed 4096-byte region holding the raw, unmodified
// client request-header bytes as received. The proxy conduit replays
// this region verbatim to the backend, so nothing past Fill may ever
// mutate it.
type Buffer struct {
	data [Max]byte
	n    int
}

// Bytes returns the header bytes accumulated so far.
func (b *Buffer) Bytes() []byte { return b.data[:b.n] }

// Len reports how many bytes have been read into the buffer.
func (b *Buffer) Len() int { return b.n }

// Fill repeatedly reads from r, appending after the last valid byte,
// until the last four accumulated bytes are CRLFCRLF, the buffer
// fills without ever seeing the terminator (ErrTooLarge), or r returns
// an error.
//
// Matching the source being reimplemented: if r returns io.EOF before
// any terminator is seen but at least two bytes were received, the
// buffer is treated as complete on the theory that parsing will reject
// it with 400 if it isn't a well-formed request. If r returns io.EOF
// after fewer than two bytes, Fill fails with ErrBadRequest. Any
// other read error (in particular a deadline timeout) is returned
// unwrapped so the worker can distinguish it and log 408.
func (b *Buffer) Fill(r io.Reader) error {
	for {
		if b.n == Max {
			return ErrTooLarge
		}
		n, err := r.Read(b.data[b.n:])
		b.n += n
		if n > 0 && b.n >= len(terminator) && hasTerminator(b.data[:b.n]) {
			return nil
		}
		if err != nil {
			if err == io.EOF {
				if b.n >= 2 {
					return nil
				}
				return ErrBadRequest
			}
			return err
		}
	}
}

func hasTerminator(buf []byte) bool {
	tail := buf[len(buf)-len(terminator):]
	for i, c := range terminator {
		if tail[i] != c {
			return false
		}
	}
	return true
}
