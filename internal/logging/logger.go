// Package logging defines the structured-logging interface used across the
// project together with slog and zap backed implementations.
package logging

import (
	"context"
	"io"
	"log/slog"

	"go.uber.org/zap"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr, "mode", mode)
type Logger interface {
	// Debug logs routine diagnostics such as rejected tokens.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	FormatSlog = "slog"
	FormatZap  = "zap"
)

// New builds the process logger for the given environment. local writes
// human-readable debug output, dev writes JSON at debug level and prod
// writes JSON at info level. format selects the slog or zap backend.
func New(env, format string, w io.Writer) (Logger, error) {
	if format == FormatZap {
		var (
			l   *zap.Logger
			err error
		)
		if env == EnvProd {
			l, err = zap.NewProduction()
		} else {
			l, err = zap.NewDevelopment()
		}
		if err != nil {
			return nil, err
		}
		return NewZapLogger(l), nil
	}

	var h slog.Handler
	switch env {
	case EnvLocal:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	case EnvDev:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return NewSlogLogger(slog.New(h)), nil
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
