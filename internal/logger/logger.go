package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a logger writing to stdout. Every record carries the service
// name and the host it ran on.
func New(service string, json bool, level slog.Level) *slog.Logger {
	return NewWriter(os.Stdout, service, json, level)
}

func NewWriter(w io.Writer, service string, json bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", service, "hostname", hostname())
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func hostname() string { h, _ := os.Hostname(); return h }
