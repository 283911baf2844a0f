package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// ZerologAdapter implements Logger on top of zerolog. Every entry carries the
// component that produced it.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// New writes JSON lines to out, or human-readable ones when useJSON is false.
func New(out io.Writer, level zerolog.Level, useJSON bool) *ZerologAdapter {
	if !useJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	return &ZerologAdapter{
		logger: zerolog.New(out).Level(level).With().Timestamp().Logger(),
	}
}

func (z *ZerologAdapter) Info(component, message string, fields map[string]interface{}) {
	annotate(z.logger.Info(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Warning(component, message string, fields map[string]interface{}) {
	annotate(z.logger.Warn(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Debug(component, message string, fields map[string]interface{}) {
	annotate(z.logger.Debug(), component, fields).Msg(message)
}

// Error logs err under the component; the message names the component so
// console output reads "Viewer failed error=...".
func (z *ZerologAdapter) Error(component string, err error, fields map[string]interface{}) {
	annotate(z.logger.Error().Err(err), component, fields).Msg(component + " failed")
}

// annotate is safe on a nil event, which zerolog hands out for disabled levels.
func annotate(event *zerolog.Event, component string, fields map[string]interface{}) *zerolog.Event {
	event = event.Str("component", component)
	if len(fields) > 0 {
		event = event.Fields(fields)
	}
	return event
}
