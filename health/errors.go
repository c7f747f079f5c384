package health

import "errors"

var (
	// ErrCheckFailed is the base error for a check that ran and reported a
	// problem, such as memory over its threshold.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is reported when a check outlives the aggregator
	// timeout.
	ErrCheckTimeout = errors.New("health: check timed out")

	// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
	ErrCheckerNotFound = errors.New("health: no such check")
)
