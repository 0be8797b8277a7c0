package observability

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	ctxKeyCorrelationID ctxKey = iota
	ctxKeyRequestID
)

// Attribute names shared between the log handler and the HTTP layer.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
)

// WithCorrelationID stores a correlation id in the context, minting one
// when the caller has none to propagate.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

// WithRequestID stores a request id in the context, minting one when id
// is empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// CorrelationIDFromContext returns the correlation id, or "" when unset.
func CorrelationIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxKeyCorrelationID)
}

// RequestIDFromContext returns the request id, or "" when unset.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxKeyRequestID)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}

// NewRequestContext prepares a context for an incoming request. It mints
// a fresh request id and adopts the caller's correlation id, minting one
// of those too when the caller sent none.
func NewRequestContext(ctx context.Context, correlationID string) context.Context {
	return WithCorrelationID(WithRequestID(ctx, ""), correlationID)
}
