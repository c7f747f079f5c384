package resilience

import "errors"

var (
	// ErrCircuitOpen rejects a call without running it while the breaker
	// is open or its half-open trial quota is used up.
	ErrCircuitOpen = errors.New("resilience: circuit open, call rejected")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt has
	// been spent.
	ErrMaxRetriesExceeded = errors.New("resilience: retry attempts exhausted")

	// ErrRateLimitExceeded means no token was available.
	ErrRateLimitExceeded = errors.New("resilience: rate limit reached")

	// ErrBulkheadFull means every concurrency slot stayed taken for the
	// configured wait.
	ErrBulkheadFull = errors.New("resilience: concurrency limit reached")

	// ErrTimeout means the per-call deadline passed first.
	ErrTimeout = errors.New("resilience: call deadline exceeded")
)
