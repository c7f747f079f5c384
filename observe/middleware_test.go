package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/catalogops/storeerr"
)

type harness struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
	mw     *Middleware
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	logs := &bytes.Buffer{}
	logger := NewLoggerWithWriter("debug", logs)

	return &harness{
		spans:  spans,
		reader: reader,
		logs:   logs,
		mw:     NewMiddleware(NewTracer(tp.Tracer("test")), metrics, logger),
	}
}

func (h *harness) collect(t *testing.T) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := h.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumOf(m *metricdata.Metrics) int64 {
	if m == nil {
		return 0
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return 0
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %q", line)
		}
		out = append(out, entry)
	}
	return out
}

func TestMiddleware_SuccessPath(t *testing.T) {
	h := newHarness(t)
	meta := OpMeta{Name: "query", Backend: "store"}

	called := false
	err := h.mw.Run(context.Background(), meta, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !called {
		t.Fatal("operation was not invoked")
	}

	spans := h.spans.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "catalog.query" {
		t.Errorf("span name = %q, want catalog.query", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("span status = %v, want Ok", spans[0].Status().Code)
	}

	rm := h.collect(t)
	if got := sumOf(findMetric(rm, MetricOpTotal)); got != 1 {
		t.Errorf("%s = %d, want 1", MetricOpTotal, got)
	}
	if findMetric(rm, MetricOpDuration) == nil {
		t.Errorf("%s not recorded", MetricOpDuration)
	}
	if got := sumOf(findMetric(rm, MetricOpErrors)); got != 0 {
		t.Errorf("%s = %d, want 0", MetricOpErrors, got)
	}

	lines := logLines(t, h.logs)
	if len(lines) != 1 || lines[0]["level"] != "debug" {
		t.Fatalf("expected one debug line, got %v", lines)
	}
	if lines[0]["trace_id"] == nil {
		t.Error("expected trace_id on log line inside the span")
	}
}

func TestMiddleware_ErrorPath(t *testing.T) {
	h := newHarness(t)
	meta := OpMeta{Name: "update", Backend: "store", ItemID: "item_1"}
	opErr := storeerr.New(storeerr.Network, "update", errors.New("connection reset"))

	err := h.mw.Run(context.Background(), meta, func(context.Context) error {
		return opErr
	})
	if !errors.Is(err, opErr) {
		t.Fatalf("Run() error = %v, want %v", err, opErr)
	}

	spans := h.spans.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", span.Status().Code)
	}
	var kind string
	for _, kv := range span.Attributes() {
		if kv.Key == attribute.Key("catalog.error.kind") {
			kind = kv.Value.AsString()
		}
	}
	if kind != "network" {
		t.Errorf("catalog.error.kind = %q, want network", kind)
	}

	if got := sumOf(findMetric(h.collect(t), MetricOpErrors)); got != 1 {
		t.Errorf("%s = %d, want 1", MetricOpErrors, got)
	}

	lines := logLines(t, h.logs)
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d", len(lines))
	}
	if lines[0]["level"] != "error" || lines[0]["error_kind"] != "network" || lines[0]["item_id"] != "item_1" {
		t.Errorf("unexpected log line %v", lines[0])
	}
}

func TestMiddleware_ExpectedFailuresLogAtInfo(t *testing.T) {
	for _, kind := range []storeerr.Kind{storeerr.NotFound, storeerr.Validation} {
		t.Run(kind.String(), func(t *testing.T) {
			h := newHarness(t)
			_ = h.mw.Run(context.Background(), OpMeta{Name: "delete"}, func(context.Context) error {
				return storeerr.New(kind, "delete", nil)
			})
			lines := logLines(t, h.logs)
			if len(lines) != 1 || lines[0]["level"] != "info" {
				t.Errorf("expected one info line, got %v", lines)
			}
		})
	}
}

func TestMiddleware_NilComponents(t *testing.T) {
	mw := NewMiddleware(nil, nil, nil)
	err := mw.Run(context.Background(), OpMeta{Name: "query"}, func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	mw.RecordCacheLookup(context.Background(), "list:abc", true)
	if mw.Logger() == nil {
		t.Error("Logger() returned nil")
	}
}

func TestMiddleware_RecordCacheLookup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mw.RecordCacheLookup(ctx, "list:a", true)
	h.mw.RecordCacheLookup(ctx, "list:a", true)
	h.mw.RecordCacheLookup(ctx, "item:b", false)

	rm := h.collect(t)
	if got := sumOf(findMetric(rm, MetricCacheHits)); got != 2 {
		t.Errorf("%s = %d, want 2", MetricCacheHits, got)
	}
	if got := sumOf(findMetric(rm, MetricCacheMisses)); got != 1 {
		t.Errorf("%s = %d, want 1", MetricCacheMisses, got)
	}
}

func TestMiddlewareFromObserver_Nil(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Fatalf("error = %v, want ErrNilObserver", err)
	}
}
