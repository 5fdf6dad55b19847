package auth

import "context"

// identityKey is a private type for the identity context key.
type identityKey struct{}

// SetIdentity stores the authenticated identity in the context.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the authenticated identity.
// Returns nil if no identity is set.
func IdentityFromContext(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}

// ConnectionFromContext returns the connection id of the caller's session,
// or empty string.
func ConnectionFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id.Bound() {
		return id.ConnectionID
	}
	return ""
}
