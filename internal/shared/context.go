package shared

import "context"

type invocationContextKey struct{}

// ContextWithInvocation stores the hook invocation id in context.
func ContextWithInvocation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationContextKey{}, id)
}

// InvocationFromContext extracts the hook invocation id from context.
func InvocationFromContext(ctx context.Context) string {
	id, _ := ctx.Value(invocationContextKey{}).(string)
	return id
}
