package catalog

import "errors"

// Sentinel errors for catalog values.
var (
	// ErrInvalidItem indicates an item or patch failed validation.
	ErrInvalidItem = errors.New("catalog: invalid item")

	// ErrInvalidFilter indicates a filter set could not be built or parsed.
	ErrInvalidFilter = errors.New("catalog: invalid filter")
)
