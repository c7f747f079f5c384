package health

import (
	"context"
	"time"

	"github.com/jonwraymond/catalogops/storeerr"
)

// Status represents the health status of a component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component is functioning but with issues.
	StatusDegraded
	// StatusUnhealthy indicates the component is not functioning properly.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a health check.
type Result struct {
	Status    Status
	Message   string
	Details   map[string]any
	Duration  time.Duration
	Timestamp time.Time
	Error     error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message, Timestamp: time.Now()}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message, Timestamp: time.Now()}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err, Timestamp: time.Now()}
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker is the interface for health checks.
type Checker interface {
	// Name returns the name of this checker.
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() string { return f.name }

// Check performs the health check.
func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }

// PingFunc checks a dependency.
type PingFunc func(ctx context.Context) error

// PingChecker reports a dependency by pinging it and classifying the failure.
//
// Mapping:
//   - nil: healthy
//   - network: degraded, since the failure is transient
//   - resource missing, credentials invalid, other: unhealthy
type PingChecker struct {
	name string
	ping PingFunc
}

// NewPingChecker creates a PingChecker. The store checker is
// NewPingChecker("store", store.Ping).
func NewPingChecker(name string, ping PingFunc) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

// Name returns the name of this checker.
func (p *PingChecker) Name() string { return p.name }

// Check pings the dependency.
func (p *PingChecker) Check(ctx context.Context) Result {
	err := p.ping(ctx)
	if err == nil {
		return Healthy("reachable")
	}
	kind := storeerr.KindOf(err)
	details := map[string]any{"kind": kind.String()}
	if kind == storeerr.Network {
		r := Degraded("unreachable: " + err.Error()).WithDetails(details)
		r.Error = err
		return r
	}
	return Unhealthy(kind.String()+": "+err.Error(), err).WithDetails(details)
}

var (
	_ Checker = (*CheckerFunc)(nil)
	_ Checker = (*PingChecker)(nil)
)
