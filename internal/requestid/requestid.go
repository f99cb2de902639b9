package requestid

import (
	"context"

	"github.com/google/uuid"
)

const (
	// Header carries the per-request correlation id on responses.
	Header = "X-Request-ID"
	// TraceHeader is an optional client-supplied trace id.
	TraceHeader = "X-Trace-ID"
)

type (
	requestIDKey struct{}
	traceIDKey   struct{}
)

// New generates a random UUID v4 request ID.
func New() string {
	return uuid.NewString()
}

// WithRequestID returns a copy of ctx with the request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// FromContext extracts the request ID from ctx. Returns "" if absent.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithTraceID attaches an inbound trace id. Empty ids are not stored.
func WithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, traceIDKey{}, id)
}

// TraceIDFromContext returns the inbound trace id, or "" if none was sent.
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
