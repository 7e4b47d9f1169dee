// Package logger builds the service's slog JSON loggers and passes
// request-scoped loggers, annotated with a trace ID, through context.Context.
package logger
