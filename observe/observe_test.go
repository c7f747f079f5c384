package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/catalogops/observe/exporters"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "minimal",
			cfg:  Config{ServiceName: "catalogd"},
		},
		{
			name:    "missing service name",
			cfg:     Config{},
			wantErr: ErrMissingServiceName,
		},
		{
			name:    "bad tracing exporter",
			cfg:     Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, Exporter: "zipkin"}},
			wantErr: ErrInvalidTracingExporter,
		},
		{
			name:    "bad sample pct",
			cfg:     Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.5}},
			wantErr: ErrInvalidSamplePct,
		},
		{
			name:    "bad metrics exporter",
			cfg:     Config{ServiceName: "s", Metrics: MetricsConfig{Enabled: true, Exporter: "statsd"}},
			wantErr: ErrInvalidMetricsExporter,
		},
		{
			name:    "bad log level",
			cfg:     Config{ServiceName: "s", Logging: LoggingConfig{Enabled: true, Level: "trace"}},
			wantErr: ErrInvalidLogLevel,
		},
		{
			name: "disabled subsystems skip checks",
			cfg:  Config{ServiceName: "s", Tracing: TracingConfig{Exporter: "zipkin"}, Metrics: MetricsConfig{Exporter: "statsd"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewObserver_Disabled(t *testing.T) {
	ctx := context.Background()
	obs, err := NewObserver(ctx, Config{ServiceName: "catalogd"})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	if obs.Tracer() == nil || obs.Meter() == nil || obs.Logger() == nil {
		t.Fatal("expected non-nil no-op primitives")
	}
	if err := obs.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := obs.Shutdown(ctx); err != nil {
		t.Fatalf("second Shutdown() error = %v", err)
	}
}

func TestNewObserver_StdoutExporters(t *testing.T) {
	ctx := context.Background()
	buf := &bytes.Buffer{}
	obs, err := NewObserver(ctx, Config{
		ServiceName: "catalogd",
		Version:     "test",
		Tracing:     TracingConfig{Enabled: true, Exporter: exporters.Stdout, SamplePct: 1},
		Metrics:     MetricsConfig{Enabled: true, Exporter: exporters.Stdout},
		Exporters:   exporters.Options{Writer: buf},
	})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver() error = %v", err)
	}
	_ = mw.Run(ctx, OpMeta{Name: "query"}, func(context.Context) error { return nil })

	if err := obs.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("catalog.query")) {
		t.Error("expected exported span named catalog.query")
	}
}

func TestNewObserver_OTLPWithoutEndpoint(t *testing.T) {
	_, err := NewObserver(context.Background(), Config{
		ServiceName: "catalogd",
		Tracing:     TracingConfig{Enabled: true, Exporter: exporters.OTLP, SamplePct: 1},
		Exporters:   exporters.Options{Getenv: func(string) string { return "" }},
	})
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Fatalf("error = %v, want ErrEndpointNotConfigured", err)
	}
}
