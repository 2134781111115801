// Package accesslog emits the single mandated log record per served
// connection: a tab-separated UTC timestamp, client IP, numeric status
// and request target, written atomically so concurrent workers never
// interleave a line.
package accesslog

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Record is the four-field access record spec.md §6 mandates.
type Record struct {
	Time   time.Time
	Client string
	Status int
	Target string
}

// Logger serializes Record writes to a single underlying writer. Go's
// os.File.Write is not guaranteed atomic across goroutines the way a
// single buffered write() syscall is in the source, so the mutex here
// stands in for that guarantee (spec.md §5's "standard output" shared
// resource).
type Logger struct {
	mu sync.Mutex
	w  io.Writer
}

// New wraps w, the access log's destination (standard output in every
// deployment spec.md describes).
func New(w io.Writer) *Logger {
	return &Logger{w: w}
}

// Log formats and writes r as a single line:
// TIMESTAMP\tCLIENT_IP\tSTATUS\tTARGET\n
func (l *Logger) Log(r Record) {
	line := fmt.Sprintf("%s\t%s\t%d\t%s\n",
		r.Time.UTC().Format("2006-01-02T15:04:05"), r.Client, r.Status, r.Target)

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, line)
}
