package auth

import (
	"context"
	"net/http"
)

// Authenticator decides whether a proxy request comes from a trusted
// front-end service.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: a rejected caller is reported in the result, not as an error;
//   an error means the check itself could not run.
type Authenticator interface {
	// Name identifies the scheme in logs.
	Name() string

	// Authenticate inspects the request credentials.
	Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error)
}

// AuthRequest is the part of an inbound proxy request an authenticator
// may look at.
type AuthRequest struct {
	Headers http.Header
}

// GetHeader returns the first value of key, matched case-insensitively.
func (r *AuthRequest) GetHeader(key string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get(key)
}

// AuthResult carries either the caller identity or the rejection reason.
type AuthResult struct {
	Authenticated bool
	Identity      *Identity
	Error         error
}

// AuthSuccess admits the caller.
func AuthSuccess(identity *Identity) *AuthResult {
	return &AuthResult{Authenticated: true, Identity: identity}
}

// AuthFailure rejects the caller with err, one of the package sentinels.
func AuthFailure(err error) *AuthResult {
	return &AuthResult{Error: err}
}
