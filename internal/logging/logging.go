// Package logging wires the process-wide slog logger. The terminal belongs
// to the picker, so records only ever go to a file named by RPICK_LOG.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvFile  = "RPICK_LOG"
	EnvLevel = "RPICK_LOG_LEVEL"
)

// Setup builds a logger from the environment. The returned closer must be
// called on exit; it is a no-op when logging is disabled.
func Setup(getenv func(string) string) (*slog.Logger, func() error, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	path := strings.TrimSpace(getenv(EnvFile))
	if path == "" {
		return Discard(), func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return Discard(), func() error { return nil }, fmt.Errorf("open log file: %w", err)
	}
	logger := New(f, ParseLevel(getenv(EnvLevel)))
	return logger, f.Close, nil
}

// New returns a text logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name to a slog level, defaulting to debug since
// the file only exists when someone asked for it.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// OrDiscard lets components accept a nil logger.
func OrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}
