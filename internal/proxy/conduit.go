// Package proxy implements the backend dialer, the proxy conduit
// (header replay + bidirectional streaming), and the per-connection
// worker that ties the header reader, parser, matcher and conduit
// together.
package proxy

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/jeremybobbin/shttproxy/internal/reqparse"
)

// DialTimeout bounds the backend TCP handshake. The source dials
// loopback synchronously with no explicit timeout of its own; this
// reuses the same 30s budget the client side gets, so a wedged
// backend can't hang a worker indefinitely.
const DialTimeout = 30 * time.Second

// copyBufferSize matches BUFSIZ from the source (spec.md §4.5): a
// conservative default scratch-buffer size for the backend-to-client
// copy loop.
const copyBufferSize = 8192

const (
	statusOK                 reqparse.Status = 200
	statusInternalServerErr  reqparse.Status = 500
	statusRequestTimeoutConn reqparse.Status = 408
)

// dialBackend opens a fresh TCP connection to the matched backend on
// loopback. The reimplementation keeps the connection blocking for its
// whole lifetime (spec.md §9's non-blocking-backend note): the conduit
// below uses ordinary blocking Read/Write, and a non-blocking backend
// socket would only produce spurious short reads against that loop.
func dialBackend(port uint16) (net.Conn, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	return net.DialTimeout("tcp", addr, DialTimeout)
}

// runConduit dials the matched backend, replays header to it, and
// streams its reply back to client. It mirrors the source's proxy()
// precisely in when it does and doesn't write a synthetic error body:
// a dial failure or a failed header replay happens before any byte has
// reached the client, so both get a synthetic 500 written to client.
// Once the backend-to-client copy has started, a backend read error or
// a client write error is reported only as a logged status — writing
// a fresh response on top of a partially streamed one would corrupt
// the client's view of the reply.
//
// Every blocking call on backend and client gets a fresh deadline
// immediately beforehand, so a backend that connects but then stalls
// (mid-write or mid-response) can't hang the worker past Timeout, the
// same per-operation discipline Worker.Serve applies on the client
// side.
//
// runConduit closes backend before returning but leaves client open;
// closing it is the caller's job (Worker.Serve does so after logging).
func runConduit(client net.Conn, header []byte, port uint16) reqparse.Status {
	backend, err := dialBackend(port)
	if err != nil {
		abortWithError(client)
		return statusInternalServerErr
	}
	defer backend.Close()

	if err := setDeadline(backend); err != nil {
		abortWithError(client)
		return statusInternalServerErr
	}
	if err := writeFull(backend, header); err != nil {
		abortWithError(client)
		return statusInternalServerErr
	}

	buf := make([]byte, copyBufferSize)
	for {
		if err := setDeadline(backend); err != nil {
			return statusInternalServerErr
		}
		n, rerr := backend.Read(buf)
		if n > 0 {
			if err := setDeadline(client); err != nil {
				return statusRequestTimeoutConn
			}
			if werr := writeFull(client, buf[:n]); werr != nil {
				return statusRequestTimeoutConn
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return statusOK
			}
			return statusInternalServerErr
		}
	}
}

// abortWithError writes a synthetic 500 to client for a pre-stream
// failure, best-effort: if refreshing client's deadline itself fails,
// the client side is already unusable and there's nothing left to do.
func abortWithError(client net.Conn) {
	if setDeadline(client) == nil {
		reqparse.WriteError(client, reqparse.Status(statusInternalServerErr))
	}
}

// writeFull retries the tail of a short write; any non-nil error is
// propagated to the caller unchanged, and a zero-length write with no
// error (which the source treats as fatal) is reported as
// io.ErrShortWrite.
func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if n == 0 && err == nil {
			return io.ErrShortWrite
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
