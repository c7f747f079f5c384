package secret

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestRegistry_RegisterAndCreate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("stub", func(cfg map[string]any) (Provider, error) {
		return &stubProvider{name: "stub", values: map[string]string{"k": cfg["v"].(string)}}, nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	p, err := r.Create("stub", map[string]any{"v": "val"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, _ := p.Resolve(context.Background(), "k")
	if got != "val" {
		t.Fatalf("got %q", got)
	}
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("", nil); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("empty registration err = %v", err)
	}
	factory := func(map[string]any) (Provider, error) { return FileProvider{}, nil }
	_ = r.Register("file", factory)
	if err := r.Register("file", factory); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("duplicate err = %v", err)
	}
	if _, err := r.Create("vault", nil); !errors.Is(err, ErrProviderNotRegistered) {
		t.Fatalf("unknown err = %v", err)
	}
}

func TestDefaultRegistry_Builtins(t *testing.T) {
	if got := DefaultRegistry.List(); !slices.Equal(got, []string{"env", "file"}) {
		t.Fatalf("List = %v", got)
	}

	res, err := DefaultRegistry.NewResolver(true, nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	defer res.Close()

	t.Setenv("CATALOG_SIGNING_KEY", "k3y")
	got, err := res.ResolveValue(context.Background(), "secretref:env:CATALOG_SIGNING_KEY")
	if err != nil || got != "k3y" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestRegistry_NewResolverFactoryError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry()
	_ = r.Register("bad", func(map[string]any) (Provider, error) { return nil, boom })
	if _, err := r.NewResolver(false, nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
