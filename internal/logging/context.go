package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)

	// Trace correlation (from OpenTelemetry)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if runID := RunIDFromContext(ctx); runID != "" {
		fields = append(fields, zap.String("run.id", runID))
	}

	if step := StepFromContext(ctx); step != "" {
		fields = append(fields, zap.String("step", step))
	}

	return fields
}

type runIDCtxKey struct{}
type stepCtxKey struct{}
type loggerCtxKey struct{}

// WithRunID adds the run ID to context so every log line carries it.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDCtxKey{}, runID)
}

// RunIDFromContext extracts the run ID from context, or "".
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// WithStep adds the current step name to context.
func WithStep(ctx context.Context, step string) context.Context {
	return context.WithValue(ctx, stepCtxKey{}, step)
}

// StepFromContext extracts the step name from context, or "".
func StepFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(stepCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithLogger stores the logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves the logger from context.
// Returns a nop logger if none is stored.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zap: zap.NewNop(), config: NewDefaultConfig()}
}
