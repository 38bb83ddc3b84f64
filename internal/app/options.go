package app

import (
	"io"
	"os"
	"time"

	"github.com/bft-labs/flashship/internal/adapters/speech"
	"github.com/bft-labs/flashship/internal/ports"
)

// Option configures optional behavior of a Pipeline.
type Option func(*options)

type options struct {
	logger   ports.Logger
	notifier ports.Notifier
	out      io.Writer
	now      func() time.Time
}

func defaultOptions() options {
	return options{
		logger:   noopLogger{},
		notifier: speech.Noop{},
		out:      os.Stdout,
		now:      time.Now,
	}
}

// WithLogger sets the structured logger. Defaults to discarding output.
func WithLogger(logger ports.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithNotifier sets the narration side channel. Defaults to speech.Noop.
func WithNotifier(n ports.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithOutput sets where status lines such as "Upload successful!" go.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithClock sets the clock used for the upload timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// noopLogger discards all log messages.
type noopLogger struct{}

func (noopLogger) Debug(msg string, fields ...ports.Field) {}
func (noopLogger) Info(msg string, fields ...ports.Field)  {}
func (noopLogger) Warn(msg string, fields ...ports.Field)  {}
func (noopLogger) Error(msg string, fields ...ports.Field) {}
