package observe

import (
	"context"
	"time"

	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/catalogops/storeerr"
)

// OpFunc is one catalog operation as seen by Middleware.
type OpFunc func(ctx context.Context) error

// Middleware wraps catalog operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: the span is carried in the context passed to the operation.
//   - Errors: errors from the operation are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NewTracer(tracenoop.NewTracerProvider().Tracer("noop"))
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Run executes op inside a span and records its outcome.
func (m *Middleware) Run(ctx context.Context, meta OpMeta, op OpFunc) error {
	ctx, span := m.tracer.StartSpan(ctx, meta)
	start := time.Now()

	err := op(ctx)

	duration := time.Since(start)
	m.tracer.EndSpan(span, err)
	m.metrics.RecordOperation(ctx, meta, duration, err)

	fields := []Field{
		F("op", meta.Name),
		F("duration_ms", float64(duration.Microseconds())/1000),
	}
	if meta.Backend != "" {
		fields = append(fields, F("backend", meta.Backend))
	}
	if meta.ItemID != "" {
		fields = append(fields, F("item_id", meta.ItemID))
	}

	if err == nil {
		m.logger.Debug(ctx, "catalog operation completed", fields...)
		return nil
	}

	kind := storeerr.KindOf(err)
	fields = append(fields, F("error", err), F("error_kind", kind.String()))
	switch kind {
	case storeerr.NotFound, storeerr.Validation:
		m.logger.Info(ctx, "catalog operation rejected", fields...)
	default:
		m.logger.Error(ctx, "catalog operation failed", fields...)
	}
	return err
}

// RecordCacheLookup matches cache.HitHook so the planner's read-through cache
// can report hits and misses.
func (m *Middleware) RecordCacheLookup(ctx context.Context, _ string, hit bool) {
	m.metrics.RecordCacheLookup(ctx, hit)
}
