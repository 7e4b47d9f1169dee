package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// TraceIDKey is the attribute name under which request trace IDs are logged.
const TraceIDKey = "trace_id"

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOrDefault(ctx, slog.Default())
}

// FromContextOrDefault returns the logger stored in ctx, or fallback when
// none is present. A nil fallback means slog.Default.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	if fallback == nil {
		return slog.Default()
	}
	return fallback
}

// WithTraceID stores a logger annotated with traceID in ctx. The logger is
// derived from the one already in ctx, or from base.
func WithTraceID(ctx context.Context, base *slog.Logger, traceID string) context.Context {
	l := FromContextOrDefault(ctx, base).With(slog.String(TraceIDKey, traceID))
	return WithLogger(ctx, l)
}
