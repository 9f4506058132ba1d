// Package logging holds the process-wide structured logger.
//
// The default is a no-op logger so library consumers and tests stay
// silent unless something opts in. The CLI calls Configure at startup.
package logging

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

var Logger zerolog.Logger

func init() {
	SetGlobalLogger(zerolog.Nop())
}

// SetGlobalLogger replaces the package logger and the zerolog default
// context logger in one step.
func SetGlobalLogger(logger zerolog.Logger) {
	Logger = logger
	zerolog.DefaultContextLogger = &Logger
}

// Configure installs a console-style logger writing to w at the given
// level. Timestamps are included so interleaved edit sessions can be
// reconstructed from the log alone.
func Configure(w io.Writer, level zerolog.Level) {
	out := zerolog.ConsoleWriter{Out: w}
	SetGlobalLogger(zerolog.New(out).Level(level).With().Timestamp().Logger())
}

func With() zerolog.Context { return Logger.With() }

func Err(err error) *zerolog.Event { return Logger.Err(err) }

func Trace() *zerolog.Event { return Logger.Trace() }

func Debug() *zerolog.Event { return Logger.Debug() }

func Info() *zerolog.Event { return Logger.Info() }

func Warn() *zerolog.Event { return Logger.Warn() }

func Error() *zerolog.Event { return Logger.Error() }

func WithLevel(level zerolog.Level) *zerolog.Event { return Logger.WithLevel(level) }

func Log() *zerolog.Event { return Logger.Log() }

func Ctx(ctx context.Context) *zerolog.Logger { return zerolog.Ctx(ctx) }
