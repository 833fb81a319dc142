/*
Package logx provides a structured logging wrapper based on zerolog.

It owns the process-wide logger used by the bookshelf server and CLI, selects a
human-readable console format in development and JSON elsewhere, and exposes
small helpers for the Debug, Info, Warn, Error and Fatal levels.
*/
package logx

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls how the global logger is built.
type Options struct {
	// Development switches to the colored console writer at Debug level.
	Development bool

	// Output overrides the destination. Defaults to stdout (JSON) or stderr (console).
	Output io.Writer
}

// InitGlobalLogger initializes the global zerolog instance.
// Every entry carries a Unix timestamp and the caller location.
func InitGlobalLogger(opts Options) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	out := opts.Output
	level := zerolog.InfoLevel

	if opts.Development {
		if out == nil {
			out = os.Stderr
		}
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
		level = zerolog.DebugLevel
	} else if out == nil {
		out = os.Stdout
	}

	log.Logger = zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Logger returns a pointer to the global zerolog.Logger instance.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Ctx returns the request-scoped logger stored in ctx, falling back to the global one.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return Logger()
}

// pairs drops an odd-length key/value list, since zerolog's Fields would panic on it.
func pairs(level string, fields []any) []any {
	if len(fields)%2 == 0 {
		return fields
	}
	Logger().Warn().
		Int("fields_count", len(fields)).
		Str("log_level", level).
		Msg("logx: odd number of fields, fields ignored")
	return nil
}

// Debug records a message at Debug level with optional key/value fields.
func Debug(msg string, fields ...any) {
	Logger().Debug().Fields(pairs("debug", fields)).CallerSkipFrame(1).Msg(msg)
}

// Info records a message at Info level with optional key/value fields.
func Info(msg string, fields ...any) {
	Logger().Info().Fields(pairs("info", fields)).CallerSkipFrame(1).Msg(msg)
}

// Warn records a message at Warn level with optional key/value fields.
func Warn(msg string, fields ...any) {
	Logger().Warn().Fields(pairs("warn", fields)).CallerSkipFrame(1).Msg(msg)
}

// Error records err and a message at Error level with optional key/value fields.
func Error(err error, msg string, fields ...any) {
	Logger().Error().Err(err).Fields(pairs("error", fields)).CallerSkipFrame(1).Msg(msg)
}

// Fatal records err at Fatal level and terminates the process with exit code 1.
func Fatal(err error, msg string, fields ...any) {
	Logger().Fatal().Err(err).Fields(pairs("fatal", fields)).CallerSkipFrame(1).Msg(msg)
}
