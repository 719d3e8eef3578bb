package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger tagged with the service name and version.
// Debug level is enabled outside staging and production.
func New(appEnv, version string) *slog.Logger {
	return NewWithWriter(os.Stdout, appEnv, version)
}

func NewWithWriter(w io.Writer, appEnv, version string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", "callcenter-api", "env", appEnv, "version", version)
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
