package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls flow normally.
	StateClosed State = iota
	// StateOpen means calls are rejected with ErrCircuitOpen.
	StateOpen
	// StateHalfOpen means a limited number of trial calls are let through.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the number of concurrent trial calls allowed.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called, outside the breaker lock, on every transition.
	OnStateChange func(from, to State)

	// IsFailure decides whether an error counts against the circuit. Errors
	// that describe the request rather than the remote side (not found,
	// validation) should not.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool

	// Now is the clock.
	// Default: time.Now
	Now func() time.Time
}

// CircuitBreaker implements the circuit breaker pattern.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	trials      int
	rejected    int64
	transitions []transition
}

type transition struct{ from, to State }

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Execute runs op unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.Allow(); err != nil {
		return err
	}
	err := op(ctx)
	cb.Record(err)
	return err
}

// Allow reserves a call slot or returns ErrCircuitOpen. Every successful
// Allow must be followed by exactly one Record.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	cb.refreshLocked()
	var err error
	switch cb.state {
	case StateOpen:
		err = ErrCircuitOpen
	case StateHalfOpen:
		if cb.trials >= cb.config.HalfOpenMaxRequests {
			err = ErrCircuitOpen
		} else {
			cb.trials++
		}
	}
	if err != nil {
		cb.rejected++
	}
	pending := cb.drainLocked()
	cb.mu.Unlock()

	cb.notify(pending)
	return err
}

// Record reports the outcome of a call admitted by Allow.
func (cb *CircuitBreaker) Record(err error) {
	failed := err != nil && cb.config.IsFailure(err)

	cb.mu.Lock()
	switch cb.state {
	case StateClosed:
		if failed {
			cb.failures++
			if cb.failures >= cb.config.MaxFailures {
				cb.openLocked()
			}
		} else {
			cb.failures = 0
		}
	case StateHalfOpen:
		if cb.trials > 0 {
			cb.trials--
		}
		if failed {
			cb.openLocked()
		} else {
			cb.moveLocked(StateClosed)
			cb.failures = 0
		}
	}
	pending := cb.drainLocked()
	cb.mu.Unlock()

	cb.notify(pending)
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	cb.refreshLocked()
	s := cb.state
	pending := cb.drainLocked()
	cb.mu.Unlock()

	cb.notify(pending)
	return s
}

// Reset closes the circuit and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.moveLocked(StateClosed)
	cb.failures = 0
	cb.trials = 0
	pending := cb.drainLocked()
	cb.mu.Unlock()

	cb.notify(pending)
}

// Metrics returns current circuit breaker metrics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerMetrics{
		State:    cb.state,
		Failures: cb.failures,
		Rejected: cb.rejected,
		OpenedAt: cb.openedAt,
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State    State
	Failures int
	Rejected int64
	OpenedAt time.Time
}

func (cb *CircuitBreaker) refreshLocked() {
	if cb.state == StateOpen && cb.config.Now().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		cb.moveLocked(StateHalfOpen)
	}
}

func (cb *CircuitBreaker) openLocked() {
	cb.openedAt = cb.config.Now()
	cb.moveLocked(StateOpen)
}

func (cb *CircuitBreaker) moveLocked(to State) {
	if cb.state == to {
		return
	}
	cb.transitions = append(cb.transitions, transition{from: cb.state, to: to})
	cb.state = to
	cb.trials = 0
}

func (cb *CircuitBreaker) drainLocked() []transition {
	if len(cb.transitions) == 0 {
		return nil
	}
	out := cb.transitions
	cb.transitions = nil
	return out
}

func (cb *CircuitBreaker) notify(pending []transition) {
	if cb.config.OnStateChange == nil {
		return
	}
	for _, t := range pending {
		cb.config.OnStateChange(t.from, t.to)
	}
}
