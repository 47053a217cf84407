package middleware

import "context"

type contextKey string

const (
	ctxCustomerRef contextKey = "customer_ref"
	ctxRole        contextKey = "actor_role"
)

// CustomerRefFromContext returns the authenticated customer UUID or the guest
// session token, whichever identifies the caller's cart.
func CustomerRefFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCustomerRef).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithCustomerRef injects the caller identity into the context.
func WithCustomerRef(ctx context.Context, customerRef string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCustomerRef, customerRef)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}
