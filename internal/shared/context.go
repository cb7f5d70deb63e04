package shared

import "context"

type identityContextKey struct{}

// Identity describes the authenticated actor attached to a request.
type Identity struct {
	UserID string
	Name   string
	Role   string
}

// ContextWithIdentity stores the actor identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the actor identity from context.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
