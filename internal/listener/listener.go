// Package listener implements the listener supervisor of spec.md
// §4.8: bind, accept in a loop, and hand each connection to a fresh
// worker, bounded by a concurrency ceiling standing in for the
// source's RLIMIT_NPROC (spec.md §4.11).
package listener

import (
	"context"
	"net"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/jeremybobbin/shttproxy/internal/config"
	"github.com/jeremybobbin/shttproxy/internal/proxy"
)

// DefaultMaxConcurrent is the concurrency ceiling applied when the
// caller doesn't override it (spec.md §4.11). It is generous enough to
// never bind ordinary traffic while still bounding worst-case fan-out
// from a connection flood.
const DefaultMaxConcurrent = 4096

// Bind opens the listening socket spec.md §6 describes: a TCP socket
// on cfg.Host:cfg.Port, or a UNIX-domain stream socket at cfg.UnixPath
// with any stale socket file unlinked first.
func Bind(cfg *config.Config) (net.Listener, error) {
	if cfg.Network == "unix" {
		if err := os.Remove(cfg.UnixPath); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		return net.Listen("unix", cfg.UnixPath)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Host, cfg.Port))
	if err != nil {
		return nil, err
	}
	return tcpKeepAliveListener{ln.(*net.TCPListener)}, nil
}

// Supervisor runs the accept loop. It does not wait for workers to
// finish: each accepted connection is handed to a new goroutine, gated
// only by the concurrency ceiling. Once MaxConcurrent workers are
// running, the loop blocks after the next Accept until one returns.
type Supervisor struct {
	Worker        *proxy.Worker
	Diag          *zap.Logger
	MaxConcurrent int64
}

// Serve accepts connections from ln until Accept returns a
// non-temporary error, which it then returns to the caller. Temporary
// accept errors (spec.md §7's "transient supervisor errors") are
// logged and retried with exponential backoff, starting at 5ms and
// doubling up to a cap of one second.
func (s *Supervisor) Serve(ln net.Listener) error {
	max := s.MaxConcurrent
	if max <= 0 {
		max = DefaultMaxConcurrent
	}
	sem := semaphore.NewWeighted(max)

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if max := 1 * time.Second; tempDelay > max {
					tempDelay = max
				}
				s.Diag.Warn("accept error, retrying", zap.Error(err), zap.Duration("delay", tempDelay))
				time.Sleep(tempDelay)
				continue
			}
			return err
		}
		tempDelay = 0

		if err := sem.Acquire(context.Background(), 1); err != nil {
			conn.Close()
			continue
		}
		go func() {
			defer sem.Release(1)
			s.Worker.Serve(conn)
		}()
	}
}
