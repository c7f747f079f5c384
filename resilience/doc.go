// Package resilience provides the failure-handling patterns the catalog uses
// around its document store and proxy boundary.
//
// # Patterns
//
//   - Retry: bounded re-execution with exponential, linear or constant
//     backoff. The mutation pipeline retries only network-class failures.
//
//   - Circuit Breaker: stops calling a failing proxy after a threshold and
//     trial calls for recovery.
//
//   - Bulkhead: caps concurrent full-table scans.
//
//   - Timeout: bounds a single store or proxy call.
//
//   - Rate Limiter: token bucket guarding the proxy server.
//
// Patterns compose through an Executor. Value-returning operations go
// through Do, which adapts any pattern's Execute method.
//
// # Usage
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts: 3,
//	    RetryIf:     storeerr.IsRetryable,
//	})
//
//	id, err := resilience.Do(ctx, retry.Execute, func(ctx context.Context) (string, error) {
//	    return createItem(ctx)
//	})
package resilience
