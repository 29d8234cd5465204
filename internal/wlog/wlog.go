// Package wlog wraps log/slog with the two handler shapes the daemon
// and CLI need: JSON records to daemon.log, text to stderr.
package wlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// startupMarkerFormat is the exact line the crash-recovery log scraper
// greps for. It is written with fmt.Fprintf directly, ahead of any
// structured logging, so its text never depends on a handler's
// formatting choices.
const startupMarkerFormat = "--- daemon: starting (pid: %d)\n"

// WriteStartupMarker writes the startup marker line to w.
func WriteStartupMarker(w io.Writer, pid int) error {
	_, err := fmt.Fprintf(w, startupMarkerFormat, pid)
	return err
}

// New builds a slog.Logger writing JSON records to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewCLI builds a slog.Logger writing human-readable text to stderr,
// for CLI-side diagnostics distinct from the daemon's JSON log.
func NewCLI(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Component returns a slog.Attr tagging log records with the emitting
// subsystem, e.g. wlog.Component("rpc").
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
