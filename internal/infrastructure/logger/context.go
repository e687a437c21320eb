package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	apiUserKey   contextKey = "api_user"
)

// WithContext stores the logger in ctx.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.NewNop()
	}
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID stores the request id and tags the context logger with it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("request_id", requestID)))
}

// RequestID returns the request id stored in ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithAPIUser tags the context logger with the authenticated caller.
func WithAPIUser(ctx context.Context, email string) context.Context {
	ctx = context.WithValue(ctx, apiUserKey, email)
	return WithContext(ctx, FromContext(ctx).With(zap.String("api_user", email)))
}

// APIUser returns the caller email stored in ctx.
func APIUser(ctx context.Context) string {
	email, _ := ctx.Value(apiUserKey).(string)
	return email
}

// L returns the context logger with trace correlation fields when a span is active.
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
