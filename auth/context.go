package auth

import "context"

type identityKey struct{}

// WithIdentity records the authenticated caller on ctx. The proxy server
// does this after a token checks out so handlers and the authorizer can
// see which service is calling.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller recorded by WithIdentity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// PrincipalFromContext returns the calling service name, or "" when the
// request was not authenticated.
func PrincipalFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.Principal
	}
	return ""
}
