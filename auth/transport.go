package auth

import (
	"net/http"
)

// FailureFunc writes the response for a request that failed authentication.
type FailureFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates every request with a and attaches the identity to
// the request context. Failed requests go to onFail, which defaults to a
// plain 401.
//
// Usage:
//
//	r.Use(auth.Middleware(authenticator, writeUnauthorized))
func Middleware(a Authenticator, onFail FailureFunc) func(http.Handler) http.Handler {
	if onFail == nil {
		onFail = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := a.Authenticate(r.Context(), &AuthRequest{Headers: r.Header})
			if err != nil {
				onFail(w, r, err)
				return
			}
			if !res.Authenticated {
				onFail(w, r, res.Error)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), res.Identity)))
		})
	}
}

// TokenSource supplies bearer tokens.
type TokenSource interface {
	Token() (string, error)
}

// Transport adds a bearer token from Source to every outgoing request.
type Transport struct {
	// Source supplies tokens.
	Source TokenSource

	// Base performs the request.
	// Default: http.DefaultTransport
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Source.Token()
	if err != nil {
		return nil, err
	}
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+token)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(out)
}

var (
	_ TokenSource       = (*TokenIssuer)(nil)
	_ http.RoundTripper = (*Transport)(nil)
)
