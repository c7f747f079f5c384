// Package exporters provides factory functions for OpenTelemetry exporters.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names.
const (
	OTLP       = "otlp"
	Prometheus = "prometheus"
	Stdout     = "stdout"
	None       = "none"
)

var (
	// ErrEndpointNotConfigured indicates the OTLP endpoint variable is unset.
	ErrEndpointNotConfigured = errors.New("exporters: endpoint not configured")

	// ErrUnknownExporter indicates an unsupported exporter name.
	ErrUnknownExporter = errors.New("exporters: unknown exporter")
)

// TracingExporters lists the names NewTracingExporter accepts.
var TracingExporters = []string{OTLP, Stdout, None, ""}

// MetricsExporters lists the names NewMetricsReader accepts.
var MetricsExporters = []string{OTLP, Prometheus, Stdout, None, ""}

// Options tunes exporter construction.
type Options struct {
	// Writer receives stdout exporter output.
	// Default: os.Stdout
	Writer io.Writer

	// Getenv looks up OTLP endpoint variables.
	// Default: os.Getenv
	Getenv func(string) string
}

func (o Options) withDefaults() Options {
	if o.Writer == nil {
		o.Writer = os.Stdout
	}
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	return o
}

// NewTracingExporter creates a span exporter by name. "none" and "" return a
// nil exporter, which leaves the provider without a span processor.
func NewTracingExporter(ctx context.Context, name string, opts Options) (sdktrace.SpanExporter, error) {
	opts = opts.withDefaults()
	switch name {
	case Stdout:
		return stdouttrace.New(stdouttrace.WithWriter(opts.Writer))

	case OTLP:
		if err := requireEndpoint(opts.Getenv, "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)

	case None, "":
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: tracing %q", ErrUnknownExporter, name)
	}
}

// NewMetricsReader creates a metrics reader by name. The prometheus reader
// registers with the default Prometheus registry. "none" and "" return nil.
func NewMetricsReader(ctx context.Context, name string, opts Options) (sdkmetric.Reader, error) {
	opts = opts.withDefaults()
	switch name {
	case Stdout:
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(opts.Writer))
		if err != nil {
			return nil, fmt.Errorf("create stdout metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case OTLP:
		if err := requireEndpoint(opts.Getenv, "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); err != nil {
			return nil, err
		}
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("create OTLP metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case Prometheus:
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("create Prometheus exporter: %w", err)
		}
		return exp, nil

	case None, "":
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: metrics %q", ErrUnknownExporter, name)
	}
}

func requireEndpoint(getenv func(string) string, keys ...string) error {
	for _, k := range keys {
		if getenv(k) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: set one of %v", ErrEndpointNotConfigured, keys)
}
