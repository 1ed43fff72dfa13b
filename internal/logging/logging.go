// Package logging builds the per-run structured log handle. Nothing here is
// global: callers construct a logger and pass it to the components that need it.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FileName returns the log file name for a run started at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("tidy_%s.log", t.Format("20060102_150405"))
}

// New opens a timestamped JSON log file in dir. The returned closer must be
// closed when the run ends.
func New(dir string, now time.Time, level slog.Level) (*slog.Logger, string, io.Closer, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, "", nil, fmt.Errorf("creating log directory: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, "", nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, path, f, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
