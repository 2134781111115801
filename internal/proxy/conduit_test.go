package proxy

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/jeremybobbin/shttproxy/internal/reqparse"
)

// stubBackend starts a one-shot TCP listener on loopback and runs fn
// against each accepted connection, returning the port it bound.
func stubBackend(t *testing.T, fn func(net.Conn)) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fn(conn)
	}()

	return uint16(ln.Addr().(*net.TCPAddr).Port)
}

func TestRunConduitStreamsReplyAndReturns200(t *testing.T) {
	port := stubBackend(t, func(conn net.Conn) {
		buf := make([]byte, 4096)
		n, _ := conn.Read(buf)
		if string(buf[:n]) != "GET / HTTP/1.0\r\n\r\n" {
			t.Errorf("backend got unexpected header: %q", buf[:n])
		}
		io.WriteString(conn, "HTTP/1.0 200 OK\r\n\r\nhello")
	})

	client, srv := net.Pipe()
	defer client.Close()

	done := make(chan reqparse.Status, 1)
	go func() { done <- runConduit(srv, []byte("GET / HTTP/1.0\r\n\r\n"), port); srv.Close() }()

	got, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("read client side: %v", err)
	}
	if string(got) != "HTTP/1.0 200 OK\r\n\r\nhello" {
		t.Errorf("client got %q", got)
	}
	if status := <-done; status != statusOK {
		t.Errorf("runConduit returned %v, want 200", status)
	}
}

func TestRunConduitDialFailureWrites500(t *testing.T) {
	// Nothing listens on this port: dial must fail immediately.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()

	client, srv := net.Pipe()
	defer client.Close()

	done := make(chan reqparse.Status, 1)
	go func() { done <- runConduit(srv, []byte("GET / HTTP/1.0\r\n\r\n"), port); srv.Close() }()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("read client side: %v", err)
	}
	if status := <-done; status != statusInternalServerErr {
		t.Errorf("runConduit returned %v, want 500", status)
	}
	if len(got) == 0 {
		t.Error("expected a synthetic 500 response body, got nothing")
	}
}

func TestRunConduitBackendClosesMidStreamNoSecondResponse(t *testing.T) {
	port := stubBackend(t, func(conn net.Conn) {
		io.WriteString(conn, "HTTP/1.0 200 OK\r\n\r\npartial")
		conn.(*net.TCPConn).CloseWrite()
	})

	client, srv := net.Pipe()
	defer client.Close()

	done := make(chan reqparse.Status, 1)
	go func() { done <- runConduit(srv, []byte("GET / HTTP/1.0\r\n\r\n"), port); srv.Close() }()

	got, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("read client side: %v", err)
	}
	if string(got) != "HTTP/1.0 200 OK\r\n\r\npartial" {
		t.Errorf("client got %q, want exactly the partial reply with no appended error body", got)
	}
	if status := <-done; status != statusOK {
		t.Errorf("runConduit returned %v, want 200 (clean EOF)", status)
	}
}
