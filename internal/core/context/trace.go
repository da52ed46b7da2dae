// Package context carries per-request identifiers through the call
// chain. The HTTP trace middleware fills it in; the logger reads it so
// every line written while serving a request can be tied back to it.
package context

import (
	"context"
)

// TraceContext is the identifier set for one request: the trace the
// request belongs to, the span within it, and the request id echoed
// back to the caller.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace attaches trace identifiers to the context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns the attached trace identifiers, or nil outside a
// traced request (startup, background work, tests).
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns the request id for audit rows, or empty outside
// a traced request.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}
