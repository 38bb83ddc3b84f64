// Package log adapts zerolog to ports.Logger.
package log

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/flashship/internal/ports"
)

// ZerologAdapter implements ports.Logger using zerolog.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapterWithLogger creates an adapter wrapping an existing zerolog.Logger.
func NewZerologAdapterWithLogger(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

func (z *ZerologAdapter) Debug(msg string, fields ...ports.Field) { emit(z.logger.Debug(), msg, fields) }
func (z *ZerologAdapter) Info(msg string, fields ...ports.Field)  { emit(z.logger.Info(), msg, fields) }
func (z *ZerologAdapter) Warn(msg string, fields ...ports.Field)  { emit(z.logger.Warn(), msg, fields) }
func (z *ZerologAdapter) Error(msg string, fields ...ports.Field) { emit(z.logger.Error(), msg, fields) }

func emit(event *zerolog.Event, msg string, fields []ports.Field) {
	// Disabled levels return a nil event.
	if event == nil {
		return
	}
	for _, f := range fields {
		event = addField(event, f)
	}
	event.Msg(msg)
}

func addField(event *zerolog.Event, f ports.Field) *zerolog.Event {
	switch v := f.Value.(type) {
	case string:
		return event.Str(f.Key, v)
	case int:
		return event.Int(f.Key, v)
	case int64:
		return event.Int64(f.Key, v)
	case bool:
		return event.Bool(f.Key, v)
	case time.Duration:
		return event.Dur(f.Key, v)
	case error:
		return event.Err(v)
	default:
		return event.Interface(f.Key, v)
	}
}
