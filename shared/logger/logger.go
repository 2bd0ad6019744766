// Package logger builds the slog logger both binaries run with: tinted
// console output for development, JSON for anything ingesting the logs.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Config selects the handler, level and destination.
type Config struct {
	Level        string // debug, info, warn, error
	Format       string // json, console
	Output       string // stdout or stderr
	EnableSource bool
	TimeFormat   string // console timestamp layout

	writer io.Writer // test override for Output
}

// Logger wraps slog.Logger so call sites keep the slog API.
type Logger struct {
	*slog.Logger
}

// New builds a logger from cfg. Unknown formats fall back to JSON, unknown
// levels to info.
func New(cfg *Config) (*Logger, error) {
	level := parseLevel(cfg.Level)

	var writer io.Writer
	switch {
	case cfg.writer != nil:
		writer = cfg.writer
	case cfg.Output == "stderr":
		writer = os.Stderr
	default:
		writer = os.Stdout
	}

	var handler slog.Handler
	switch cfg.Format {
	case "console", "":
		timeFormat := cfg.TimeFormat
		if timeFormat == "" {
			timeFormat = time.RFC3339
		}
		handler = tint.NewHandler(writer, &tint.Options{
			Level:      level,
			AddSource:  cfg.EnableSource,
			TimeFormat: timeFormat,
		})
	default:
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level:     level,
			AddSource: cfg.EnableSource,
		})
	}

	return &Logger{Logger: slog.New(handler)}, nil
}

func parseLevel(level string) slog.Level {
	switch level {
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
