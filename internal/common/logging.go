// Package common provides shared utilities for damoa
package common

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger to provide a consistent interface
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a logger from logging configuration. Console format
// writes human-readable lines to stderr; anything else emits JSON. When a
// file path is configured the file receives the same stream.
func NewLogger(cfg LoggingConfig) *Logger {
	var out io.Writer = os.Stderr
	if cfg.Format == "console" || cfg.Format == "" {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	if cfg.FilePath != "" {
		if f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			out = zerolog.MultiLevelWriter(out, f)
		}
	}

	logger := zerolog.New(out).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger}
}

// NewLoggerWithOutput creates a logger writing to a specific output
func NewLoggerWithOutput(level string, w io.Writer) *Logger {
	logger := zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger() *Logger {
	return NewLogger(LoggingConfig{Level: "info", Format: "console"})
}

// NewSilentLogger creates a logger that discards all output
func NewSilentLogger() *Logger {
	logger := zerolog.New(io.Discard)
	return &Logger{Logger: logger}
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) *Logger {
	logger := l.With().Str("component", name).Logger()
	return &Logger{Logger: logger}
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
