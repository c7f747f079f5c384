package exporters

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestNewTracingExporter(t *testing.T) {
	ctx := context.Background()
	noEnv := Options{Getenv: func(string) string { return "" }, Writer: &bytes.Buffer{}}

	exp, err := NewTracingExporter(ctx, Stdout, noEnv)
	if err != nil || exp == nil {
		t.Fatalf("stdout: exporter = %v, err = %v", exp, err)
	}
	_ = exp.Shutdown(ctx)

	for _, name := range []string{None, ""} {
		exp, err := NewTracingExporter(ctx, name, noEnv)
		if err != nil || exp != nil {
			t.Errorf("%q: exporter = %v, err = %v; want nil, nil", name, exp, err)
		}
	}

	if _, err := NewTracingExporter(ctx, OTLP, noEnv); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("otlp without endpoint: err = %v", err)
	}
	if _, err := NewTracingExporter(ctx, Prometheus, noEnv); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("prometheus tracing: err = %v", err)
	}
}

func TestNewMetricsReader(t *testing.T) {
	ctx := context.Background()
	noEnv := Options{Getenv: func(string) string { return "" }, Writer: &bytes.Buffer{}}

	r, err := NewMetricsReader(ctx, Stdout, noEnv)
	if err != nil || r == nil {
		t.Fatalf("stdout: reader = %v, err = %v", r, err)
	}
	_ = r.Shutdown(ctx)

	if r, err := NewMetricsReader(ctx, None, noEnv); err != nil || r != nil {
		t.Errorf("none: reader = %v, err = %v", r, err)
	}
	if _, err := NewMetricsReader(ctx, OTLP, noEnv); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("otlp without endpoint: err = %v", err)
	}
	if _, err := NewMetricsReader(ctx, "statsd", noEnv); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("statsd: err = %v", err)
	}
}
