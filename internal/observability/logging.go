// Package observability carries per-build logging context (build id, target
// identity, current step) through context.Context so every log line of one
// build attempt can be correlated.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docforge/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	BuildID string
	Project string
	Version string
	Format  string
	Step    string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithBuildID adds a build ID to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	lc := extractLogContext(ctx)
	lc.BuildID = buildID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithTarget adds the project, version and format being built.
func WithTarget(ctx context.Context, project, version, format string) context.Context {
	lc := extractLogContext(ctx)
	lc.Project = project
	lc.Version = version
	lc.Format = format
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStep adds a lifecycle step name to the context.
func WithStep(ctx context.Context, step string) context.Context {
	lc := extractLogContext(ctx)
	lc.Step = step
	return context.WithValue(ctx, logContextKey, lc)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(lc.BuildID))
	}
	if lc.Project != "" {
		attrs = append(attrs, logfields.Project(lc.Project))
	}
	if lc.Version != "" {
		attrs = append(attrs, logfields.Version(lc.Version))
	}
	if lc.Format != "" {
		attrs = append(attrs, logfields.Format(lc.Format))
	}
	if lc.Step != "" {
		attrs = append(attrs, logfields.Step(lc.Step))
	}
	return attrs
}

// Logger returns the default logger enriched with the context's attributes.
func Logger(ctx context.Context) *slog.Logger {
	attrs := getLogAttrs(ctx)
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return slog.Default().With(args...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, slog.LevelInfo, msg, attrs)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, slog.LevelWarn, msg, attrs)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, slog.LevelError, msg, attrs)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, slog.LevelDebug, msg, attrs)
}

func logAttrs(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	all := append(getLogAttrs(ctx), attrs...)
	slog.LogAttrs(ctx, level, msg, all...)
}
