package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level  string `yaml:"level"`
	Format Format `yaml:"format"`
}

// NewLogger builds a logger writing to w.
// An unknown level falls back to info. An unknown format falls back to text.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatText:
		fallthrough
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.Wrapf(ErrInvalidConfig, "unknown log level %q", level)
}
