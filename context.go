package goLogin

import "context"

type flowIDContextKey struct{}

// WithFlowID attaches a correlation id to ctx. Flows started with such a context log and audit
// under that id instead of generating one.
func WithFlowID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, flowIDContextKey{}, id)
}

// FlowIDFromContext returns the correlation id attached to ctx, if any.
func FlowIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(flowIDContextKey{}).(string)
	return id, ok && id != ""
}
