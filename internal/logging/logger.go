// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/codyseavey/pokemarket/internal/config"
)

// NewLogger creates a *slog.Logger from cfg writing to stderr and installs it
// as the default logger via slog.SetDefault.
//
// Format "json" produces structured output; "text" is human-readable with
// source info. Level is one of debug, info, warn, error (case-insensitive)
// and defaults to info.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	logger := New(os.Stderr, cfg)
	slog.SetDefault(logger)
	return logger
}

// New creates a logger writing to w without touching the default logger.
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: strings.EqualFold(cfg.Format, "text") && ParseLevel(cfg.Level) == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
