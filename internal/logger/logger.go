// Package logger builds the slog loggers used by the rdfa command.
package logger

import (
	"io"
	"log/slog"
)

// New creates a logger writing to w at the given level, as JSON records or
// human-readable text.
func New(w io.Writer, level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
