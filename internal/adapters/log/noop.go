package log

import "github.com/bft-labs/flashship/internal/ports"

// NoopLogger implements ports.Logger by discarding all log messages.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(msg string, fields ...ports.Field) {}
func (NoopLogger) Info(msg string, fields ...ports.Field)  {}
func (NoopLogger) Warn(msg string, fields ...ports.Field)  {}
func (NoopLogger) Error(msg string, fields ...ports.Field) {}
