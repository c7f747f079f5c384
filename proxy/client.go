package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/catalogops/auth"
	"github.com/jonwraymond/catalogops/catalog"
	"github.com/jonwraymond/catalogops/observe"
	"github.com/jonwraymond/catalogops/resilience"
	"github.com/jonwraymond/catalogops/storeerr"
)

// maxResponseBytes bounds how much of a response body the client reads.
const maxResponseBytes = 8 << 20

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the proxy server address, e.g. https://catalog.internal.
	BaseURL string

	// Tokens signs outgoing requests. Nil sends no Authorization header.
	Tokens auth.TokenSource

	// HTTPClient performs requests. Its transport is wrapped with an
	// auth.Transport when Tokens is set.
	// Default: http.DefaultClient settings
	HTTPClient *http.Client

	// Timeout bounds each attempt.
	// Default: 10 seconds
	Timeout time.Duration

	// Retry configures mutation retries. RetryIf is always
	// storeerr.IsRetryable, so only network failures are repeated.
	Retry resilience.RetryConfig

	// Circuit configures the breaker shared by reads and writes.
	// Default IsFailure: network and unknown failures
	Circuit resilience.CircuitBreakerConfig

	// Logger receives retry and breaker events.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// Client is a catalog.Service that calls a proxy Server over HTTP.
//
// Reads, view counts and like toggles make one attempt; other mutations are
// retried on network failures. All calls sit behind one circuit breaker.
type Client struct {
	base    *url.URL
	http    *http.Client
	once    *resilience.Executor
	writes  *resilience.Executor
	breaker *resilience.CircuitBreaker
	logger  observe.Logger
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrBaseURLRequired
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("proxy: parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrBaseURLRequired, cfg.BaseURL)
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	logger := cfg.Logger

	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		cp := *cfg.HTTPClient
		hc = &cp
	}
	if cfg.Tokens != nil {
		hc.Transport = &auth.Transport{Source: cfg.Tokens, Base: hc.Transport}
	}

	if cfg.Circuit.IsFailure == nil {
		cfg.Circuit.IsFailure = func(err error) bool {
			k := storeerr.KindOf(err)
			return k == storeerr.Network || k == storeerr.Unknown
		}
	}
	onChange := cfg.Circuit.OnStateChange
	cfg.Circuit.OnStateChange = func(from, to resilience.State) {
		logger.Warn(context.Background(), "proxy circuit state changed",
			observe.F("from", from.String()),
			observe.F("to", to.String()),
		)
		if onChange != nil {
			onChange(from, to)
		}
	}
	breaker := resilience.NewCircuitBreaker(cfg.Circuit)

	cfg.Retry.RetryIf = storeerr.IsRetryable
	onRetry := cfg.Retry.OnRetry
	cfg.Retry.OnRetry = func(ctx context.Context, attempt int, err error, delay time.Duration) {
		logger.Warn(ctx, "proxy call failed, retrying",
			observe.F("attempt", attempt),
			observe.F("delay", delay.String()),
			observe.F("error", err),
		)
		if onRetry != nil {
			onRetry(ctx, attempt, err, delay)
		}
	}

	writes := resilience.NewExecutor(
		resilience.WithCircuitBreaker(breaker),
		resilience.WithRetry(resilience.NewRetry(cfg.Retry)),
		resilience.WithTimeout(resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.Timeout})),
	)
	return &Client{
		base:    base,
		http:    hc,
		once:    writes.WithoutRetry(),
		writes:  writes,
		breaker: breaker,
		logger:  logger,
	}, nil
}

// Breaker exposes the client's circuit breaker.
func (c *Client) Breaker() *resilience.CircuitBreaker { return c.breaker }

// Query implements catalog.Reader.
func (c *Client) Query(ctx context.Context, filters catalog.FilterSet) ([]catalog.Item, error) {
	var items []catalog.Item
	path := "/v1/items?" + filters.Normalize().Values().Encode()
	if err := c.call(ctx, c.once, "query", http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []catalog.Item{}
	}
	return items, nil
}

// GetByID implements catalog.Reader.
func (c *Client) GetByID(ctx context.Context, id string) (*catalog.Item, error) {
	if err := requireID("getById", id); err != nil {
		return nil, err
	}
	var it *catalog.Item
	err := c.call(ctx, c.once, "getById", http.MethodGet, itemPath(id, ""), nil, &it)
	if err != nil {
		if storeerr.KindOf(err) == storeerr.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return it, nil
}

// Create implements catalog.Writer.
func (c *Client) Create(ctx context.Context, item catalog.Item) (string, error) {
	var resp CreateResponse
	if err := c.call(ctx, c.writes, "create", http.MethodPost, "/v1/items", item, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Update implements catalog.Writer.
func (c *Client) Update(ctx context.Context, id string, patch catalog.Patch) (*catalog.Item, error) {
	return c.item(ctx, c.writes, "update", http.MethodPatch, id, "", patch)
}

// Delete implements catalog.Writer.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := requireID("delete", id); err != nil {
		return err
	}
	return c.call(ctx, c.writes, "delete", http.MethodDelete, itemPath(id, ""), nil, nil)
}

// SetStatus implements catalog.Writer.
func (c *Client) SetStatus(ctx context.Context, id string, t catalog.Transition) (*catalog.Item, error) {
	return c.item(ctx, c.writes, "setStatus", http.MethodPost, id, "status", StatusRequest{Transition: string(t)})
}

// IncrementViews implements catalog.Writer.
func (c *Client) IncrementViews(ctx context.Context, id string) (*catalog.Item, error) {
	return c.item(ctx, c.once, "incrementViews", http.MethodPost, id, "views", nil)
}

// ToggleLike implements catalog.Writer.
func (c *Client) ToggleLike(ctx context.Context, id, userID string) (*catalog.Item, error) {
	return c.item(ctx, c.once, "toggleLike", http.MethodPost, id, "likes", LikeRequest{UserID: userID})
}

// Ping checks the server's readiness endpoint. It does not use the breaker.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/readyz", nil)
	if err != nil {
		return storeerr.ClassifyOp("ping", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return storeerr.ClassifyOp("ping", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode != http.StatusOK {
		return storeerr.New(kindForStatus(resp.StatusCode), "ping", fmt.Errorf("readyz returned %d", resp.StatusCode))
	}
	return nil
}

// item runs a single-item mutation. Counter and like writes are not
// idempotent and go through the non-retrying executor.
func (c *Client) item(ctx context.Context, exec *resilience.Executor, op, method, id, sub string, body any) (*catalog.Item, error) {
	if err := requireID(op, id); err != nil {
		return nil, err
	}
	var it *catalog.Item
	if err := c.call(ctx, exec, op, method, itemPath(id, sub), body, &it); err != nil {
		return nil, err
	}
	return it, nil
}

func (c *Client) call(ctx context.Context, exec *resilience.Executor, op, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return storeerr.New(storeerr.Validation, op, err)
		}
	}
	err := exec.Execute(ctx, func(ctx context.Context) error {
		return c.roundTrip(ctx, op, method, path, payload, out)
	})
	if err != nil {
		return storeerr.ClassifyOp(op, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return storeerr.ClassifyOp(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return storeerr.ClassifyOp(op, err)
	}
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env); err != nil {
		return storeerr.New(kindForStatus(resp.StatusCode), op,
			fmt.Errorf("%w: status %d: %v", ErrMalformedResponse, resp.StatusCode, err))
	}
	if !env.Success {
		if env.Error == nil {
			return storeerr.New(kindForStatus(resp.StatusCode), op,
				fmt.Errorf("%w: status %d without error body", ErrMalformedResponse, resp.StatusCode))
		}
		return env.Error.toError(op)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return storeerr.New(storeerr.Unknown, op, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	return nil
}

func requireID(op, id string) error {
	if strings.TrimSpace(id) == "" {
		return storeerr.New(storeerr.Validation, op, fmt.Errorf("%w: id is required", catalog.ErrInvalidItem))
	}
	return nil
}

func itemPath(id, sub string) string {
	p := "/v1/items/" + url.PathEscape(id)
	if sub != "" {
		p += "/" + sub
	}
	return p
}

var _ catalog.Service = (*Client)(nil)
