package execctx

import (
	"context"
	"os"
	"strings"
	"sync"
)

// Context is the trust level of the current process.
type Context int

const (
	// Trusted processes hold store credentials and access the store directly.
	Trusted Context = iota
	// Proxied processes never hold store credentials; every catalog call
	// crosses the HTTP proxy boundary.
	Proxied
)

// String returns the string representation of the context.
func (c Context) String() string {
	switch c {
	case Trusted:
		return "trusted"
	case Proxied:
		return "proxied"
	default:
		return "unknown"
	}
}

// ParseContext parses "trusted" or "proxied" (case-insensitive).
func ParseContext(s string) (Context, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trusted":
		return Trusted, true
	case "proxied":
		return Proxied, true
	default:
		return Trusted, false
	}
}

// Environment variables consulted by the resolver.
const (
	// EnvProxyURL is the network-boundary indicator: a process that is told
	// where the proxy lives is a front-end process.
	EnvProxyURL = "CATALOG_PROXY_URL"

	// EnvOverride forces the context ("trusted" or "proxied").
	EnvOverride = "CATALOG_EXECUTION_CONTEXT"
)

// LookupFunc reads an environment variable. os.LookupEnv by default.
type LookupFunc func(key string) (string, bool)

// Resolver resolves the execution context once and returns the same value
// for the rest of the process lifetime.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: resolution never fails; unknown override values are ignored.
type Resolver struct {
	lookup  LookupFunc
	onFirst func(Context, string)

	once   sync.Once
	result Context
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLookup overrides how environment variables are read.
func WithLookup(fn LookupFunc) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.lookup = fn
		}
	}
}

// WithOnResolve registers a callback invoked exactly once, after the first
// resolution, with the result and the reason it was chosen.
func WithOnResolve(fn func(ctx Context, reason string)) ResolverOption {
	return func(r *Resolver) {
		r.onFirst = fn
	}
}

// NewResolver creates a resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the execution context. The first call decides; later calls
// return the cached result.
func (r *Resolver) Resolve() Context {
	r.once.Do(func() {
		var reason string
		r.result, reason = r.decide()
		if r.onFirst != nil {
			r.onFirst(r.result, reason)
		}
	})
	return r.result
}

func (r *Resolver) decide() (Context, string) {
	if v, ok := r.lookup(EnvOverride); ok {
		if c, valid := ParseContext(v); valid {
			return c, EnvOverride
		}
	}
	if v, ok := r.lookup(EnvProxyURL); ok && strings.TrimSpace(v) != "" {
		return Proxied, EnvProxyURL
	}
	return Trusted, "no network boundary indicator"
}

type contextKey struct{}

// WithContext attaches the execution context to ctx. Used by the proxy server
// to tag requests that arrived across the boundary.
func WithContext(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the execution context attached to ctx, if any.
func FromContext(ctx context.Context) (Context, bool) {
	c, ok := ctx.Value(contextKey{}).(Context)
	return c, ok
}
