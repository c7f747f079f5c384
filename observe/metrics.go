package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/catalogops/storeerr"
)

// Metric instrument names.
const (
	MetricOpTotal     = "catalog.op.total"
	MetricOpErrors    = "catalog.op.errors"
	MetricOpDuration  = "catalog.op.duration_ms"
	MetricCacheHits   = "catalog.cache.hits"
	MetricCacheMisses = "catalog.cache.misses"
)

// Metrics records catalog operation and cache metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOperation records one operation with duration and outcome.
	RecordOperation(ctx context.Context, meta OpMeta, duration time.Duration, err error)

	// RecordCacheLookup records a cache hit or miss.
	RecordCacheLookup(ctx context.Context, hit bool)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
}

// NewMetrics creates the catalog instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(MetricOpTotal,
		metric.WithDescription("Total number of catalog operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}
	errorCount, err := meter.Int64Counter(MetricOpErrors,
		metric.WithDescription("Total number of failed catalog operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}
	durationHist, err := meter.Float64Histogram(MetricOpDuration,
		metric.WithDescription("Catalog operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	cacheHits, err := meter.Int64Counter(MetricCacheHits,
		metric.WithDescription("Catalog cache hits"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}
	cacheMisses, err := meter.Int64Counter(MetricCacheMisses,
		metric.WithDescription("Catalog cache misses"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
	}, nil
}

func (m *metricsImpl) RecordOperation(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		attrs := append(meta.attributes(), attribute.String("catalog.error.kind", storeerr.KindOf(err).String()))
		m.errorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, hit bool) {
	if hit {
		m.cacheHits.Add(ctx, 1)
		return
	}
	m.cacheMisses.Add(ctx, 1)
}

type nopMetrics struct{}

func (nopMetrics) RecordOperation(context.Context, OpMeta, time.Duration, error) {}
func (nopMetrics) RecordCacheLookup(context.Context, bool)                       {}
