package auth

import (
	"slices"
	"time"
)

// Scopes granted to service tokens.
const (
	ScopeRead  = "catalog:read"
	ScopeWrite = "catalog:write"
)

// AuthMethod indicates how authentication was performed.
type AuthMethod string

const (
	AuthMethodNone AuthMethod = "none"
	AuthMethodJWT  AuthMethod = "jwt"
)

// Identity represents an authenticated service principal.
type Identity struct {
	// Principal is the calling service, from the sub claim.
	Principal string

	// Scopes are the catalog scopes the token grants.
	Scopes []string

	// Method indicates how authentication was performed.
	Method AuthMethod

	// Claims contains the raw claims from the token.
	Claims map[string]any

	// ExpiresAt is when this identity expires.
	ExpiresAt time.Time

	// IssuedAt is when the token was minted.
	IssuedAt time.Time
}

// HasScope checks if the identity was granted scope.
func (id *Identity) HasScope(scope string) bool {
	return slices.Contains(id.Scopes, scope)
}

// IsExpired checks if the identity has expired.
func (id *Identity) IsExpired(now time.Time) bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return now.After(id.ExpiresAt)
}
