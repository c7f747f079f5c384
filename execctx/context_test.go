package execctx

import (
	"context"
	"sync"
	"testing"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Context
	}{
		{name: "no indicator", env: map[string]string{}, want: Trusted},
		{name: "proxy url", env: map[string]string{EnvProxyURL: "http://catalog:8080"}, want: Proxied},
		{name: "blank proxy url", env: map[string]string{EnvProxyURL: "  "}, want: Trusted},
		{name: "override trusted", env: map[string]string{EnvProxyURL: "http://x", EnvOverride: "trusted"}, want: Trusted},
		{name: "override proxied", env: map[string]string{EnvOverride: "PROXIED"}, want: Proxied},
		{name: "bad override ignored", env: map[string]string{EnvOverride: "sideways"}, want: Trusted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(WithLookup(envMap(tt.env)))
			if got := r.Resolve(); got != tt.want {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolver_ResolvesOnce(t *testing.T) {
	env := map[string]string{}
	calls := 0
	r := NewResolver(
		WithLookup(envMap(env)),
		WithOnResolve(func(Context, string) { calls++ }),
	)

	if got := r.Resolve(); got != Trusted {
		t.Fatalf("Resolve() = %v, want trusted", got)
	}

	// A later change in the environment must not flip the decision.
	env[EnvProxyURL] = "http://proxy"

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := r.Resolve(); got != Trusted {
				t.Errorf("Resolve() = %v, want trusted", got)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("onResolve called %d times, want 1", calls)
	}
}

func TestContext_String(t *testing.T) {
	if Trusted.String() != "trusted" || Proxied.String() != "proxied" {
		t.Errorf("unexpected String() values: %q %q", Trusted, Proxied)
	}
	if Context(9).String() != "unknown" {
		t.Errorf("Context(9).String() = %q", Context(9).String())
	}
}

func TestWithContext(t *testing.T) {
	ctx := WithContext(context.Background(), Proxied)
	got, ok := FromContext(ctx)
	if !ok || got != Proxied {
		t.Errorf("FromContext() = %v, %v", got, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext on bare context should report false")
	}
}
