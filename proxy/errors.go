package proxy

import "errors"

var (
	// ErrBaseURLRequired indicates a client was built without a server address.
	ErrBaseURLRequired = errors.New("proxy: base URL is required")

	// ErrServiceRequired indicates a server was built without a catalog service.
	ErrServiceRequired = errors.New("proxy: catalog service is required")

	// ErrAuthenticatorRequired indicates a server was built without an authenticator.
	ErrAuthenticatorRequired = errors.New("proxy: authenticator is required")

	// ErrMalformedResponse indicates the server answered without a valid envelope.
	ErrMalformedResponse = errors.New("proxy: malformed response")

	// ErrRateLimited indicates the server rejected the request for rate.
	ErrRateLimited = errors.New("proxy: rate limited")
)
