package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/catalogops/execctx"
	"github.com/jonwraymond/catalogops/observe"
	"github.com/jonwraymond/catalogops/secret"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CATALOG_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config is the full catalogd configuration.
type Config struct {
	// ExecutionContext forces "trusted" or "proxied". Empty means resolve
	// from the environment (see package execctx).
	ExecutionContext string `yaml:"executionContext" env:"EXECUTION_CONTEXT"`

	Store   StoreConfig   `yaml:"store" envPrefix:"STORE_"`
	Cache   CacheConfig   `yaml:"cache" envPrefix:"CACHE_"`
	Planner PlannerConfig `yaml:"planner" envPrefix:"PLANNER_"`
	Writes  WritesConfig  `yaml:"writes" envPrefix:"WRITES_"`
	Proxy   ProxyConfig   `yaml:"proxy" envPrefix:"PROXY_"`
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Observe ObserveConfig `yaml:"observe" envPrefix:"OBSERVE_"`
}

// StoreConfig selects and tunes the document store.
type StoreConfig struct {
	// Backend is "sqlite" or "memory".
	// Default: sqlite
	Backend string `yaml:"backend" env:"BACKEND"`

	// Path is the SQLite database file. Secret-bearing.
	// Default: catalog.db
	Path string `yaml:"path" env:"PATH"`

	// Timeout bounds each store call.
	// Default: 5s
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// CacheConfig tunes the read cache.
type CacheConfig struct {
	// TTL is the entry lifetime. Zero disables caching.
	// Default: 5m
	TTL time.Duration `yaml:"ttl" env:"TTL"`

	// SweepInterval is how often expired entries are swept.
	// Default: 1m
	SweepInterval time.Duration `yaml:"sweepInterval" env:"SWEEP_INTERVAL"`
}

// PlannerConfig tunes full scans.
type PlannerConfig struct {
	// ScanConcurrency caps concurrent scans.
	// Default: 4
	ScanConcurrency int `yaml:"scanConcurrency" env:"SCAN_CONCURRENCY"`

	// ScanWait is how long a scan waits for a slot.
	// Default: 250ms
	ScanWait time.Duration `yaml:"scanWait" env:"SCAN_WAIT"`
}

// WritesConfig tunes the mutation retry budget.
type WritesConfig struct {
	// MaxAttempts includes the first attempt.
	// Default: 3
	MaxAttempts int `yaml:"maxAttempts" env:"MAX_ATTEMPTS"`

	// InitialDelay is the first backoff wait.
	// Default: 100ms
	InitialDelay time.Duration `yaml:"initialDelay" env:"INITIAL_DELAY"`

	// MaxDelay caps the backoff wait.
	// Default: 2s
	MaxDelay time.Duration `yaml:"maxDelay" env:"MAX_DELAY"`

	// IDPrefix prefixes generated item ids.
	// Default: item
	IDPrefix string `yaml:"idPrefix" env:"ID_PREFIX"`
}

// ProxyConfig covers both sides of the proxy boundary.
type ProxyConfig struct {
	// URL is the proxy server address. Setting CATALOG_PROXY_URL also marks
	// the process as proxied.
	URL string `yaml:"url" env:"URL"`

	// SigningKey is the shared HS256 key. Secret-bearing.
	SigningKey string `yaml:"signingKey" env:"SIGNING_KEY"`

	// Issuer and Audience are the token iss and aud claims.
	// Default: catalogd / catalog-proxy
	Issuer   string `yaml:"issuer" env:"ISSUER"`
	Audience string `yaml:"audience" env:"AUDIENCE"`

	// TokenTTL is the service token lifetime.
	// Default: 5m
	TokenTTL time.Duration `yaml:"tokenTTL" env:"TOKEN_TTL"`

	// Timeout bounds each client attempt.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	// MaxFailures opens the client circuit.
	// Default: 5
	MaxFailures int `yaml:"maxFailures" env:"MAX_FAILURES"`

	// ResetTimeout is how long the circuit stays open.
	// Default: 30s
	ResetTimeout time.Duration `yaml:"resetTimeout" env:"RESET_TIMEOUT"`
}

// ServerConfig configures the HTTP listener of a trusted process.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: :8080
	Addr string `yaml:"addr" env:"ADDR"`

	// RateLimit is requests per second across all callers. Zero disables.
	RateLimit float64 `yaml:"rateLimit" env:"RATE_LIMIT"`

	// RateBurst is the limiter bucket size.
	// Default: 20
	RateBurst int `yaml:"rateBurst" env:"RATE_BURST"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`
}

// ObserveConfig configures logging, tracing and metrics.
type ObserveConfig struct {
	// ServiceName is the OTel service name.
	// Default: catalogd
	ServiceName string `yaml:"serviceName" env:"SERVICE_NAME"`

	// LogLevel is debug, info, warn or error.
	// Default: info
	LogLevel string `yaml:"logLevel" env:"LOG_LEVEL"`

	// TraceExporter is otlp, stdout or none.
	// Default: none
	TraceExporter string `yaml:"traceExporter" env:"TRACE_EXPORTER"`

	// SamplePct is the trace sampling ratio.
	// Default: 1.0
	SamplePct float64 `yaml:"samplePct" env:"SAMPLE_PCT"`

	// MetricsExporter is otlp, prometheus, stdout or none.
	// Default: none
	MetricsExporter string `yaml:"metricsExporter" env:"METRICS_EXPORTER"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendSQLite,
			Path:    "catalog.db",
			Timeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			TTL:           5 * time.Minute,
			SweepInterval: time.Minute,
		},
		Planner: PlannerConfig{
			ScanConcurrency: 4,
			ScanWait:        250 * time.Millisecond,
		},
		Writes: WritesConfig{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			IDPrefix:     "item",
		},
		Proxy: ProxyConfig{
			Issuer:       "catalogd",
			Audience:     "catalog-proxy",
			TokenTTL:     5 * time.Minute,
			Timeout:      10 * time.Second,
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			RateBurst:       20,
			ShutdownTimeout: 10 * time.Second,
		},
		Observe: ObserveConfig{
			ServiceName:     "catalogd",
			LogLevel:        "info",
			TraceExporter:   "none",
			SamplePct:       1.0,
			MetricsExporter: "none",
		},
	}
}

// Options controls Load.
type Options struct {
	// Path is an optional YAML file. A missing file is not an error.
	Path string

	// Environment replaces the process environment, for tests.
	Environment map[string]string
}

// Load builds a Config from defaults, the YAML file and the environment,
// then validates it. Secrets are not resolved; see ResolveSecrets.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", opts.Path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", opts.Path, err)
			}
		}
	}

	envOpts := env.Options{Prefix: EnvPrefix}
	if opts.Environment != nil {
		envOpts.Environment = opts.Environment
	}
	if err := env.ParseWithOptions(cfg, envOpts); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports structural problems.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}

	if c.ExecutionContext != "" {
		if _, ok := execctx.ParseContext(c.ExecutionContext); !ok {
			return invalid("executionContext %q is not trusted or proxied", c.ExecutionContext)
		}
	}
	if !c.Proxied() {
		if !slices.Contains([]string{BackendMemory, BackendSQLite}, c.Store.Backend) {
			return invalid("store.backend %q is not memory or sqlite", c.Store.Backend)
		}
		if c.Store.Backend == BackendSQLite && c.Store.Path == "" {
			return invalid("store.path is required for the sqlite backend")
		}
	}
	for name, d := range map[string]time.Duration{
		"store.timeout":          c.Store.Timeout,
		"cache.ttl":              c.Cache.TTL,
		"cache.sweepInterval":    c.Cache.SweepInterval,
		"planner.scanWait":       c.Planner.ScanWait,
		"writes.initialDelay":    c.Writes.InitialDelay,
		"writes.maxDelay":        c.Writes.MaxDelay,
		"proxy.tokenTTL":         c.Proxy.TokenTTL,
		"proxy.timeout":          c.Proxy.Timeout,
		"proxy.resetTimeout":     c.Proxy.ResetTimeout,
		"server.shutdownTimeout": c.Server.ShutdownTimeout,
	} {
		if d < 0 {
			return invalid("%s must not be negative", name)
		}
	}
	if c.Writes.MaxAttempts < 1 {
		return invalid("writes.maxAttempts must be at least 1")
	}
	if c.Server.RateLimit < 0 {
		return invalid("server.rateLimit must not be negative")
	}
	if c.Proxy.URL != "" {
		u, err := url.Parse(c.Proxy.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("proxy.url %q is not an absolute URL", c.Proxy.URL)
		}
	}
	obs := c.Telemetry()
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Telemetry converts the observe section for observe.NewObserver.
func (c *Config) Telemetry() observe.Config {
	return observe.Config{
		ServiceName: c.Observe.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   c.Observe.TraceExporter != "none",
			Exporter:  c.Observe.TraceExporter,
			SamplePct: c.Observe.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Observe.MetricsExporter != "none",
			Exporter: c.Observe.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Observe.LogLevel,
		},
	}
}

// Proxied reports whether the configuration itself marks this process as a
// front end: an explicit executionContext, else a proxy URL. The execution
// context resolver applies the same rules.
func (c *Config) Proxied() bool {
	if ec, ok := execctx.ParseContext(c.ExecutionContext); ok {
		return ec == execctx.Proxied
	}
	return strings.TrimSpace(c.Proxy.URL) != ""
}

// ResolveSecrets expands the secret-bearing fields ec needs, in place.
//
// A proxied process never holds store credentials: its store section is
// cleared without being resolved, and only the proxy signing key is
// expanded. A trusted process resolves both, since it may serve the proxy.
func (c *Config) ResolveSecrets(ctx context.Context, r *secret.Resolver, ec execctx.Context) error {
	fields := map[string]*string{
		"proxy.signingKey": &c.Proxy.SigningKey,
	}
	if ec == execctx.Proxied {
		c.Store = StoreConfig{}
	} else {
		fields["store.path"] = &c.Store.Path
	}
	return r.ResolveFields(ctx, fields)
}
