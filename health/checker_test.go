package health

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/catalogops/docstore"
	"github.com/jonwraymond/catalogops/storeerr"
)

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		StatusHealthy:   "healthy",
		StatusDegraded:  "degraded",
		StatusUnhealthy: "unhealthy",
		Status(42):      "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestPingChecker(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     Status
		wantKind string
	}{
		{name: "reachable", err: nil, want: StatusHealthy},
		{name: "table missing", err: docstore.ErrTableNotFound, want: StatusUnhealthy, wantKind: "resource_missing"},
		{name: "credentials", err: storeerr.New(storeerr.CredentialsInvalid, "ping", nil), want: StatusUnhealthy, wantKind: "credentials_invalid"},
		{name: "network", err: storeerr.New(storeerr.Network, "ping", errors.New("connection refused")), want: StatusDegraded, wantKind: "network"},
		{name: "unknown", err: errors.New("disk on fire"), want: StatusUnhealthy, wantKind: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPingChecker("store", func(context.Context) error { return tt.err })
			if c.Name() != "store" {
				t.Fatalf("Name() = %q", c.Name())
			}
			r := c.Check(context.Background())
			if r.Status != tt.want {
				t.Fatalf("Status = %v, want %v (%s)", r.Status, tt.want, r.Message)
			}
			if tt.wantKind != "" && r.Details["kind"] != tt.wantKind {
				t.Errorf("kind = %v, want %s", r.Details["kind"], tt.wantKind)
			}
			if tt.err != nil && !errors.Is(r.Error, tt.err) {
				t.Errorf("Error = %v, want %v", r.Error, tt.err)
			}
		})
	}
}

func TestPingChecker_MemoryStore(t *testing.T) {
	store := docstore.NewMemoryStore("catalog", docstore.WithoutTable())
	c := NewPingChecker("store", store.Ping)

	if r := c.Check(context.Background()); r.Status != StatusUnhealthy {
		t.Fatalf("Status = %v, want unhealthy before the table exists", r.Status)
	}
	store.CreateTable()
	if r := c.Check(context.Background()); r.Status != StatusHealthy {
		t.Fatalf("Status = %v, want healthy", r.Status)
	}
}
