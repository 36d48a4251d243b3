package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log wraps a zerolog.Logger configured for the application.
type Log struct {
	zerolog.Logger
}

// New builds the root logger. Level falls back to info on unknown input.
func New(level string, pretty bool) *Log {
	return NewWithWriter(level, pretty, os.Stderr)
}

// NewWithWriter builds the root logger against an explicit writer.
func NewWithWriter(level string, pretty bool, w io.Writer) *Log {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	return &Log{Logger: logger}
}
