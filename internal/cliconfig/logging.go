package cliconfig

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a console logger writing to w.
func NewLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// WithLevel returns l filtered to the named level; unknown names keep info.
func WithLevel(l zerolog.Logger, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return l.Level(lvl)
}
