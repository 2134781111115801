package accesslog

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Log(Record{
		Time:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Client: "127.0.0.1",
		Status: 200,
		Target: "/",
	})
	want := "2026-08-01T12:00:00\t127.0.0.1\t200\t/\n"
	if got := buf.String(); got != want {
		t.Errorf("Log wrote %q, want %q", got, want)
	}
}

func TestLogConcurrentWritesNeverInterleave(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Log(Record{Time: time.Now(), Client: "127.0.0.1", Status: 200, Target: "/x"})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 50 {
		t.Fatalf("got %d lines, want 50 (interleaved writes would corrupt the count)", len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, "\t200\t/x") {
			t.Errorf("corrupted line: %q", line)
		}
	}
}
