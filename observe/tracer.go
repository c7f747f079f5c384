package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/catalogops/storeerr"
)

// OpMeta describes a catalog operation for telemetry purposes.
type OpMeta struct {
	Name    string // Operation name, e.g. "query" or "create" (required)
	Backend string // "store" for direct access, "proxy" for the HTTP client
	ItemID  string // Target item (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: catalog.<name>
func (m OpMeta) SpanName() string {
	return "catalog." + m.Name
}

func (m OpMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("catalog.op", m.Name)}
	if m.Backend != "" {
		attrs = append(attrs, attribute.String("catalog.backend", m.Backend))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with catalog span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for one operation.
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error and its kind.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	attrs := meta.attributes()
	if meta.ItemID != "" {
		attrs = append(attrs, attribute.String("catalog.item_id", meta.ItemID))
	}
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("catalog.error.kind", storeerr.KindOf(err).String()))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
