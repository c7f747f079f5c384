package health

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func fixed(name string, r Result) Checker {
	return NewCheckerFunc(name, func(context.Context) Result { return r })
}

func TestAggregator_RegisterOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("store", Healthy("ok")))
	agg.Register(fixed("memory", Healthy("ok")))
	agg.Register(fixed("store", Degraded("replaced")))

	if got := agg.CheckerNames(); !slices.Equal(got, []string{"store", "memory"}) {
		t.Fatalf("CheckerNames = %v", got)
	}
	r, err := agg.Check(context.Background(), "store")
	if err != nil || r.Status != StatusDegraded {
		t.Fatalf("Check = %v, %v", r.Status, err)
	}
	if _, err := agg.Check(context.Background(), "nope"); !errors.Is(err, ErrCheckerNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("store", Healthy("ok")))
	agg.Register(fixed("memory", Degraded("high")))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("len = %d", len(results))
	}
	if results["memory"].Status != StatusDegraded {
		t.Errorf("memory = %v", results["memory"].Status)
	}
	if results["store"].Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
	if got := OverallStatus(results); got != StatusDegraded {
		t.Errorf("OverallStatus = %v", got)
	}
	if got := len(NewAggregator().CheckAll(context.Background())); got != 0 {
		t.Errorf("empty CheckAll = %d results", got)
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	release := make(chan struct{})
	defer close(release)
	agg.Register(NewCheckerFunc("store", func(context.Context) Result {
		<-release
		return Healthy("late")
	}))

	r := agg.CheckAll(context.Background())["store"]
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCheckTimeout) {
		t.Fatalf("result = %+v", r)
	}
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{name: "empty", results: nil, want: StatusHealthy},
		{name: "all healthy", results: map[string]Result{"a": Healthy(""), "b": Healthy("")}, want: StatusHealthy},
		{name: "degraded", results: map[string]Result{"a": Healthy(""), "b": Degraded("")}, want: StatusDegraded},
		{name: "unhealthy wins", results: map[string]Result{"a": Degraded(""), "b": Unhealthy("", nil)}, want: StatusUnhealthy},
	}
	for _, tt := range tests {
		if got := OverallStatus(tt.results); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
