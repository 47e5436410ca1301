package shared

import "context"

// Principal identifies the authenticated caller. It is carried explicitly
// on the request context; nothing in the system reads ambient auth state.
type Principal struct {
	UserID int64
	Email  string
	Name   string
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal, nil when unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
