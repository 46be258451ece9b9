package logger

import (
	"context"
	"log/slog"
)

type contextKey string

// Business context keys propagated through the pipeline for observability.
const (
	RequestIDKey contextKey = "rag.request.id"
	PhaseKey     contextKey = "rag.pipeline.phase"
	ProviderKey  contextKey = "rag.provider"
)

// ContextLogger extracts pipeline context values into structured log fields.
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

// NewContextLogger wraps an existing slog logger with context extraction.
func NewContextLogger(base *slog.Logger, serviceName string) *ContextLogger {
	return &ContextLogger{logger: base, serviceName: serviceName}
}

// WithContext returns a logger carrying the service name plus any request id,
// phase, or provider present on the context.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	log := cl.logger.With(slog.String("service", cl.serviceName))

	var fields []any
	if v := ctx.Value(RequestIDKey); v != nil {
		fields = append(fields, string(RequestIDKey), v)
	}
	if v := ctx.Value(PhaseKey); v != nil {
		fields = append(fields, string(PhaseKey), v)
	}
	if v := ctx.Value(ProviderKey); v != nil {
		fields = append(fields, string(ProviderKey), v)
	}
	if len(fields) > 0 {
		log = log.With(fields...)
	}
	return log
}

// WithRequestID tags the context with the per-request pipeline id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithPhase tags the context with the current pipeline phase.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, PhaseKey, phase)
}

// WithProvider tags the context with the selected cloud provider.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ProviderKey, provider)
}
