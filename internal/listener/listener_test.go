package listener

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/jeremybobbin/shttproxy/internal/accesslog"
	"github.com/jeremybobbin/shttproxy/internal/config"
	"github.com/jeremybobbin/shttproxy/internal/proxy"
	"github.com/jeremybobbin/shttproxy/internal/routetable"
	"go.uber.org/zap"
)

func TestBindTCP(t *testing.T) {
	cfg := &config.Config{Network: "tcp", Host: "127.0.0.1", Port: "0"}
	ln, err := Bind(cfg)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer ln.Close()
	if ln.Addr().Network() != "tcp" {
		t.Errorf("Addr().Network() = %q, want tcp", ln.Addr().Network())
	}
}

func TestBindUnixRemovesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shttproxy.sock")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("seed stale socket file: %v", err)
	}

	cfg := &config.Config{Network: "unix", UnixPath: path}
	ln, err := Bind(cfg)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer ln.Close()
	if ln.Addr().Network() != "unix" {
		t.Errorf("Addr().Network() = %q, want unix", ln.Addr().Network())
	}
}

func TestSupervisorServeDispatchesToWorker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	table, err := routetable.Parse([]string{"www.example.com@1"})
	if err != nil {
		t.Fatalf("routetable.Parse: %v", err)
	}
	sup := &Supervisor{
		Worker:        &proxy.Worker{Table: table, Access: accesslog.New(io.Discard)},
		Diag:          zap.NewNop(),
		MaxConcurrent: 2,
	}

	go sup.Serve(ln)
	defer ln.Close()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := io.WriteString(conn, "GET / HTTP/1.0\r\nHost: unknown.example.com\r\n\r\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(out) == 0 {
		t.Error("expected a response from the dispatched worker, got nothing")
	}
}
