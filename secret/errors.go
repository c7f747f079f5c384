package secret

import "errors"

// Sentinel errors for secret resolution.
var (
	// ErrMissingEnv indicates a referenced environment variable is unset.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrProviderNotRegistered indicates a secretref names an unknown provider.
	ErrProviderNotRegistered = errors.New("secret: provider is not registered")

	// ErrInvalidRef indicates a malformed secret reference.
	ErrInvalidRef = errors.New("secret: invalid secret reference")

	// ErrEmptySecret indicates a strict resolver got an empty value.
	ErrEmptySecret = errors.New("secret: provider returned empty value")

	// ErrInvalidRegistration indicates a nameless or nil provider factory.
	ErrInvalidRegistration = errors.New("secret: invalid provider registration")
)
