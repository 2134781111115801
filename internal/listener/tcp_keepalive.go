package listener

import (
	"net"
	"time"
)

// keepAlivePeriod is shttproxy's accept-time TCP keepalive interval.
// It is longer than the 30-second worker Timeout, so a client
// connection that goes idle mid-stream hits its I/O deadline before
// the first keepalive probe is sent.
const keepAlivePeriod = 3 * time.Minute

// tcpKeepAliveListener wraps a *net.TCPListener so accepted client
// connections carry a TCP keepalive, the same accept-time touch the
// source's inherited listener socket gets for free from the kernel
// default.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (l tcpKeepAliveListener) Accept() (net.Conn, error) {
	conn, err := l.AcceptTCP()
	if err != nil {
		return nil, err
	}
	conn.SetKeepAlive(true)
	conn.SetKeepAlivePeriod(keepAlivePeriod)
	return conn, nil
}
