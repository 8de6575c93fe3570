// Package infrastructure wires process-level concerns, currently the
// structured logger.
package infrastructure

import (
	"log/slog"
	"os"
	"strings"

	"github.com/Open-Empirical-Finance/gotaq/internal/config"
)

// NewLogger builds a slog logger from the logging configuration and
// installs it as the process default. Output goes to stderr so result
// files on stdout stay clean.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Level),
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
