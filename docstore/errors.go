package docstore

import "errors"

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound indicates the item does not exist.
	ErrNotFound = errors.New("docstore: item not found")

	// ErrTableNotFound indicates the backing table does not exist.
	ErrTableNotFound = errors.New("docstore: table does not exist")

	// ErrConditionFailed indicates a conditional write was rejected.
	ErrConditionFailed = errors.New("docstore: condition failed")

	// ErrInvalidInput indicates a malformed request (unknown index, bad attribute).
	ErrInvalidInput = errors.New("docstore: invalid input")
)
