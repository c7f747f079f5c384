package app

import "errors"

var (
	// ErrProxyURLRequired indicates a proxied process has no proxy address.
	ErrProxyURLRequired = errors.New("app: proxy URL is required in the proxied context")

	// ErrNotTrusted indicates a trusted-only facility was requested by a
	// proxied process.
	ErrNotTrusted = errors.New("app: operation requires the trusted context")
)
