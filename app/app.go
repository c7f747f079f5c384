package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/catalogops/auth"
	"github.com/jonwraymond/catalogops/cache"
	"github.com/jonwraymond/catalogops/catalog"
	"github.com/jonwraymond/catalogops/config"
	"github.com/jonwraymond/catalogops/docstore"
	"github.com/jonwraymond/catalogops/docstore/sqlite"
	"github.com/jonwraymond/catalogops/execctx"
	"github.com/jonwraymond/catalogops/health"
	"github.com/jonwraymond/catalogops/mutation"
	"github.com/jonwraymond/catalogops/observe"
	"github.com/jonwraymond/catalogops/observe/exporters"
	"github.com/jonwraymond/catalogops/planner"
	"github.com/jonwraymond/catalogops/proxy"
	"github.com/jonwraymond/catalogops/resilience"
)

// App is an assembled catalogd process.
type App struct {
	// Context is the execution context New was given.
	Context execctx.Context

	// Service is the instrumented catalog for this context.
	Service catalog.Service

	// Health aggregates the process's checkers.
	Health *health.Aggregator

	cfg      *config.Config
	observer observe.Observer
	mw       *observe.Middleware
	logger   observe.Logger
	store    docstore.Store
	cache    *cache.MemoryCache
	closers  []func(context.Context) error
}

// Option adjusts New.
type Option func(*options)

type options struct {
	observer observe.Observer
	store    docstore.Store
	notifier mutation.Notifier
}

// WithObserver uses obs instead of building one from configuration.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithStore uses store instead of opening the configured backend. Trusted only.
func WithStore(store docstore.Store) Option {
	return func(o *options) { o.store = store }
}

// WithNotifier receives mutation events in addition to the event log.
func WithNotifier(n mutation.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// New builds the process for ec. cfg must already have its secrets resolved.
func New(ctx context.Context, cfg *config.Config, ec execctx.Context, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	obs := o.observer
	if obs == nil {
		var err error
		if obs, err = observe.NewObserver(ctx, cfg.Telemetry()); err != nil {
			return nil, fmt.Errorf("app: observer: %w", err)
		}
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, fmt.Errorf("app: middleware: %w", err)
	}

	a := &App{
		Context:  ec,
		Health:   health.NewAggregator(),
		cfg:      cfg,
		observer: obs,
		mw:       mw,
		logger:   obs.Logger().With(observe.F("context", ec.String())),
	}
	a.closers = append(a.closers, obs.Shutdown)
	a.Health.Register(health.NewMemoryChecker(health.MemoryCheckerConfig{}))

	switch ec {
	case execctx.Proxied:
		err = a.buildProxied()
	default:
		err = a.buildTrusted(ctx, o)
	}
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.logger.Info(ctx, "catalog assembled")
	return a, nil
}

func (a *App) buildTrusted(ctx context.Context, o options) error {
	store := o.store
	backend := "custom"
	if store == nil {
		var err error
		if store, backend, err = a.openStore(ctx); err != nil {
			return err
		}
	}
	a.store = store

	a.cache = cache.NewMemoryCache(cache.Policy{
		TTL:           a.cfg.Cache.TTL,
		SweepInterval: a.cfg.Cache.SweepInterval,
	})
	a.cache.Init()
	a.closers = append(a.closers, a.cache.Shutdown)

	reader := planner.New(store, a.cache, planner.Config{
		ScanConcurrency: a.cfg.Planner.ScanConcurrency,
		ScanWait:        a.cfg.Planner.ScanWait,
		StoreTimeout:    a.cfg.Store.Timeout,
		CacheHook:       a.mw.RecordCacheLookup,
		Logger:          a.logger,
	})

	notifiers := mutation.Notifiers{mutation.NotifierFunc(a.logEvent)}
	if o.notifier != nil {
		notifiers = append(notifiers, o.notifier)
	}
	writer := mutation.New(store, a.cache, mutation.Config{
		Retry: resilience.RetryConfig{
			MaxAttempts:  a.cfg.Writes.MaxAttempts,
			InitialDelay: a.cfg.Writes.InitialDelay,
			MaxDelay:     a.cfg.Writes.MaxDelay,
			Jitter:       true,
		},
		StoreTimeout: a.cfg.Store.Timeout,
		IDPrefix:     a.cfg.Writes.IDPrefix,
		Notifier:     notifiers,
		Logger:       a.logger,
	})

	a.Service = observe.WrapService(catalog.Compose(reader, writer), a.mw, backend)
	a.Health.Register(health.NewPingChecker("store", store.Ping))
	a.Health.Register(health.NewCheckerFunc("cache", func(context.Context) health.Result {
		st := a.cache.Stats()
		scans := reader.ScanMetrics()
		return health.Healthy("").WithDetails(map[string]any{
			"entries":        st.Entries,
			"hits":           st.Hits,
			"misses":         st.Misses,
			"scans_active":   scans.Active,
			"scans_rejected": scans.Rejected,
		})
	}))
	return nil
}

func (a *App) openStore(ctx context.Context) (docstore.Store, string, error) {
	switch a.cfg.Store.Backend {
	case config.BackendMemory:
		return docstore.NewMemoryStore(sqlite.TableName), config.BackendMemory, nil
	default:
		s, err := sqlite.Open(ctx, a.cfg.Store.Path, sqlite.Options{})
		if err != nil {
			return nil, "", fmt.Errorf("app: open store: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
		return s, config.BackendSQLite, nil
	}
}

func (a *App) buildProxied() error {
	if a.cfg.Proxy.URL == "" {
		return ErrProxyURLRequired
	}
	issuer, err := auth.NewTokenIssuer(auth.IssuerConfig{
		Key:      []byte(a.cfg.Proxy.SigningKey),
		Issuer:   a.cfg.Proxy.Issuer,
		Audience: a.cfg.Proxy.Audience,
		TTL:      a.cfg.Proxy.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("app: token issuer: %w", err)
	}
	client, err := proxy.NewClient(proxy.ClientConfig{
		BaseURL: a.cfg.Proxy.URL,
		Tokens:  issuer,
		Timeout: a.cfg.Proxy.Timeout,
		Retry: resilience.RetryConfig{
			MaxAttempts:  a.cfg.Writes.MaxAttempts,
			InitialDelay: a.cfg.Writes.InitialDelay,
			MaxDelay:     a.cfg.Writes.MaxDelay,
			Jitter:       true,
		},
		Circuit: resilience.CircuitBreakerConfig{
			MaxFailures:  a.cfg.Proxy.MaxFailures,
			ResetTimeout: a.cfg.Proxy.ResetTimeout,
		},
		Logger: a.logger,
	})
	if err != nil {
		return fmt.Errorf("app: proxy client: %w", err)
	}
	a.Service = observe.WrapService(client, a.mw, "proxy")
	a.Health.Register(health.NewPingChecker("store", client.Ping))
	return nil
}

// Handler returns the HTTP surface of a trusted process: the /v1/items
// proxy API, health endpoints and, with the prometheus exporter, /metrics.
func (a *App) Handler() (http.Handler, error) {
	if a.Context != execctx.Trusted {
		return nil, ErrNotTrusted
	}
	authn, err := auth.NewJWTAuthenticator(auth.JWTConfig{
		Key:      []byte(a.cfg.Proxy.SigningKey),
		Issuer:   a.cfg.Proxy.Issuer,
		Audience: a.cfg.Proxy.Audience,
	})
	if err != nil {
		return nil, fmt.Errorf("app: authenticator: %w", err)
	}
	var limiter *resilience.RateLimiter
	if a.cfg.Server.RateLimit > 0 {
		limiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:  a.cfg.Server.RateLimit,
			Burst: a.cfg.Server.RateBurst,
		})
	}
	srv, err := proxy.NewServer(proxy.ServerConfig{
		Service:       a.Service,
		Authenticator: authn,
		RateLimiter:   limiter,
		Logger:        a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("app: proxy server: %w", err)
	}

	r := srv.Routes()
	r.Mount("/", health.Routes(a.Health))
	if a.cfg.Observe.MetricsExporter == exporters.Prometheus {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r, nil
}

// Logger returns the process logger.
func (a *App) Logger() observe.Logger { return a.logger }

// Cache returns the read cache, or nil in the proxied context.
func (a *App) Cache() *cache.MemoryCache { return a.cache }

// Close releases everything New acquired, last acquired first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) logEvent(ctx context.Context, ev mutation.Event) error {
	a.logger.Debug(ctx, "catalog event",
		observe.F("event", string(ev.Type)),
		observe.F("item_id", ev.ItemID),
	)
	return nil
}
