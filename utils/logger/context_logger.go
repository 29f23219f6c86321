package logger

import (
	"context"
	"log/slog"
	"time"
)

// ContextKey namespaces values this package reads from a context.
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
	OperationKey ContextKey = "operation"
	CacheKeyKey  ContextKey = "portal.cache.key"
)

var contextKeys = []ContextKey{RequestIDKey, UserIDKey, OperationKey, CacheKeyKey}

// GlobalContext is set by Init.
var GlobalContext = NewContextLogger(slog.Default())

// ContextLogger adds request-scoped values from a context to log records.
type ContextLogger struct {
	logger *slog.Logger
}

// NewContextLogger wraps l.
func NewContextLogger(l *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: l}
}

// WithContext returns a logger carrying the context's known values.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	var fields []any
	for _, k := range contextKeys {
		if v := ctx.Value(k); v != nil {
			fields = append(fields, string(k), v)
		}
	}
	if len(fields) == 0 {
		return cl.logger
	}
	return cl.logger.With(fields...)
}

// LogDuration logs how long operation took in milliseconds.
func (cl *ContextLogger) LogDuration(ctx context.Context, operation string, ms int64) {
	cl.WithContext(ctx).InfoContext(ctx, "operation completed",
		"operation", operation,
		"duration_ms", ms)
}

// Since is LogDuration measured from start.
func (cl *ContextLogger) Since(ctx context.Context, operation string, start time.Time) {
	cl.LogDuration(ctx, operation, time.Since(start).Milliseconds())
}

// LogError logs a failed operation.
func (cl *ContextLogger) LogError(ctx context.Context, operation string, err error) {
	cl.WithContext(ctx).ErrorContext(ctx, "operation failed",
		"operation", operation,
		"error", err)
}

// WithRequestID stores the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// WithUserID stores the acting user.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// WithOperation stores the operation name.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, OperationKey, op)
}

// WithCacheKey stores the query cache key being fetched.
func WithCacheKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, CacheKeyKey, key)
}

// RequestIDFrom returns the stored request ID, if any.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(RequestIDKey).(string)
	return id, ok && id != ""
}
