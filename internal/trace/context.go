package trace

import (
	"context"
	"log/slog"
)

// ctxKey is the key type for storing the logger in context.
type ctxKey struct{}

// FromContext extracts the logger from context.
// If not found, returns a discarding logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return Discard()
	}
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return Discard()
}

// WithLogger attaches a logger to context.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	if l == nil {
		l = Discard()
	}
	return context.WithValue(ctx, ctxKey{}, l)
}
