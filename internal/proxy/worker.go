package proxy

import (
	"net"
	"time"

	"github.com/jeremybobbin/shttproxy/internal/accesslog"
	"github.com/jeremybobbin/shttproxy/internal/reqhead"
	"github.com/jeremybobbin/shttproxy/internal/reqparse"
	"github.com/jeremybobbin/shttproxy/internal/routetable"
)

// Timeout is the fixed send/receive timeout spec.md §4.6 applies to
// the client socket (SO_SNDTIMEO/SO_RCVTIMEO in the source). It is
// deliberately not configurable: the source never exposed it as a
// flag either.
const Timeout = 30 * time.Second

// Worker owns one accepted client connection end to end: it applies
// the connection timeout, runs the header reader and parser, consults
// the routing table, and drives the conduit, emitting exactly one
// access record before it returns. Workers share nothing but the
// read-only Table and the Access logger's internal mutex.
type Worker struct {
	Table  *routetable.Table
	Access *accesslog.Logger
}

// Serve runs one connection to completion and closes it on every exit
// path. Every blocking operation on conn gets its own fresh deadline
// immediately beforehand (spec.md §5's per-operation SO_RCVTIMEO/
// SO_SNDTIMEO discipline), rather than one deadline covering the whole
// connection lifetime.
func (w *Worker) Serve(conn net.Conn) {
	defer func() {
		// Half-close the write side first so the client sees the reply
		// end with a FIN even when unread request bytes make Close
		// reset the connection.
		if hc, ok := conn.(interface{ CloseWrite() error }); ok {
			hc.CloseWrite()
		}
		conn.Close()
	}()

	clientIP := remoteIP(conn)

	if setDeadline(conn) != nil {
		return
	}

	var hdrBuf reqhead.Buffer
	if err := hdrBuf.Fill(conn); err != nil {
		status := readErrorStatus(err)
		if setDeadline(conn) == nil {
			status = reqparse.WriteError(conn, status)
		}
		w.log(clientIP, status, "")
		return
	}

	req, status := reqparse.Parse(hdrBuf.Bytes())
	if status != reqparse.OK {
		target := ""
		if req != nil {
			target = req.Target
		}
		if setDeadline(conn) == nil {
			status = reqparse.WriteError(conn, status)
		}
		w.log(clientIP, status, target)
		return
	}

	entry, ok := w.Table.Match(req.Field(reqparse.Host))
	if !ok {
		status := reqparse.StatusBadRequest
		if setDeadline(conn) == nil {
			status = reqparse.WriteError(conn, status)
		}
		w.log(clientIP, status, req.Target)
		return
	}

	final := runConduit(conn, hdrBuf.Bytes(), entry.BackendPort)
	w.log(clientIP, final, req.Target)
}

// setDeadline refreshes conn's combined read/write deadline to Timeout
// from now, called immediately before each blocking I/O call on conn
// rather than once for the connection's whole lifetime.
func setDeadline(conn net.Conn) error {
	return conn.SetDeadline(time.Now().Add(Timeout))
}

func readErrorStatus(err error) reqparse.Status {
	switch err {
	case reqhead.ErrTooLarge:
		return reqparse.StatusFieldTooLarge
	case reqhead.ErrBadRequest:
		return reqparse.StatusBadRequest
	default:
		// Anything else is a read error, most commonly the deadline
		// set above expiring (spec.md §4.1's "request-timeout").
		return reqparse.StatusRequestTimeout
	}
}

func (w *Worker) log(clientIP string, status reqparse.Status, target string) {
	w.Access.Log(accesslog.Record{
		Time:   time.Now(),
		Client: clientIP,
		Status: int(status),
		Target: target,
	})
}

// remoteIP strips the port from conn's remote address, as spec.md §6
// requires: "no brackets" either, which net.SplitHostPort already
// gives us for IPv6 literals.
func remoteIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}
