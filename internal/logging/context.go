package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Context key types.
type estimateCtxKey struct{}
type programCtxKey struct{}
type batchCtxKey struct{}
type loggerCtxKey struct{}

// ContextFields extracts correlation data from the context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if id := EstimateIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("estimate.id", id))
	}
	if program := ProgramFromContext(ctx); program != "" {
		fields = append(fields, zap.String("program", program))
	}
	if batch := BatchIDFromContext(ctx); batch != "" {
		fields = append(fields, zap.String("batch.id", batch))
	}

	return fields
}

// WithEstimateID adds the estimate ID to the context.
func WithEstimateID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, estimateCtxKey{}, id)
}

// EstimateIDFromContext extracts the estimate ID, or "".
func EstimateIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(estimateCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// WithProgram adds the DRP program ID to the context.
func WithProgram(ctx context.Context, program string) context.Context {
	return context.WithValue(ctx, programCtxKey{}, program)
}

// ProgramFromContext extracts the program ID, or "".
func ProgramFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(programCtxKey{}).(string); ok {
		return p
	}
	return ""
}

// WithBatchID adds the batch run ID to the context.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchCtxKey{}, id)
}

// BatchIDFromContext extracts the batch ID, or "".
func BatchIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(batchCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves the logger, or a nop logger if absent.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zap: zap.NewNop(), config: NewDefaultConfig()}
}
