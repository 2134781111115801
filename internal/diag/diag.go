// Package diag provides the structured diagnostic logger used for
// startup, fatal, and accept-loop messages (spec.md §4.10). It never
// touches the per-connection access record, whose wire format is
// fixed by spec.md §6 and is written directly by internal/accesslog.
package diag

import (
	"os"

	"go.uber.org/zap"
)

// New builds a production-style logger that writes leveled,
// timestamped JSON to stderr, leaving stdout free for the access log.
func New() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		// zap itself failing to build is unrecoverable startup
		// breakage; there is nothing left to log it with.
		os.Exit(1)
	}
	return logger
}
