package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// Audit returns the request-scoped logger tagged as an audit record.
// Detailed failure reasons go here and only here; the HTTP boundary
// stays deliberately vague.
func Audit(ctx context.Context) *slog.Logger {
	return FromContext(ctx).With("channel", "audit")
}
