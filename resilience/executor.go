package resilience

import "context"

// Executor composes resilience patterns around a call.
//
// The chain, outermost first, is circuit breaker, retry, timeout: the breaker
// sees one outcome per logical call, and each retry attempt gets its own
// deadline.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithTimeout adds a per-attempt timeout to the executor.
func WithTimeout(t *Timeout) ExecutorOption {
	return func(e *Executor) { e.timeout = t }
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Execute runs op through the configured patterns.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	run := op
	if e.timeout != nil {
		run = wrap(e.timeout.Execute, run)
	}
	if e.retry != nil {
		run = wrap(e.retry.Execute, run)
	}
	if e.circuitBreaker != nil {
		run = wrap(e.circuitBreaker.Execute, run)
	}
	return run(ctx)
}

// WithoutRetry returns a copy of the executor that makes a single attempt,
// for operations that must not be repeated.
func (e *Executor) WithoutRetry() *Executor {
	cp := *e
	cp.retry = nil
	return &cp
}

func wrap(exec ExecuteFunc, inner func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return exec(ctx, inner)
	}
}
