package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(t *testing.T, agg *Aggregator, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	Routes(agg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRoutes_Liveness(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("store", Unhealthy("down", nil)))

	rec := serve(t, agg, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("liveness = %d %q", rec.Code, rec.Body.String())
	}
}

func TestRoutes_Readiness(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		wantCode int
		wantBody string
	}{
		{name: "healthy", result: Healthy("ok"), wantCode: http.StatusOK, wantBody: "OK"},
		{name: "degraded", result: Degraded("slow"), wantCode: http.StatusOK, wantBody: "DEGRADED"},
		{name: "unhealthy", result: Unhealthy("down", nil), wantCode: http.StatusServiceUnavailable, wantBody: "UNHEALTHY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			agg.Register(fixed("store", tt.result))
			rec := serve(t, agg, "/readyz")
			if rec.Code != tt.wantCode || rec.Body.String() != tt.wantBody {
				t.Fatalf("readyz = %d %q", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRoutes_Detailed(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("store", Unhealthy("resource_missing", errors.New("no table"))))
	agg.Register(fixed("memory", Healthy("fine")))

	rec := serve(t, agg, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "unhealthy" || len(resp.Checks) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Checks["store"].Error != "no table" {
		t.Errorf("store error = %q", resp.Checks["store"].Error)
	}
}

func TestRoutes_SingleCheck(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("memory", Degraded("high")))

	rec := serve(t, agg, "/health/memory")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var c CheckResponse
	if err := json.NewDecoder(rec.Body).Decode(&c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Status != "degraded" || c.Message != "high" {
		t.Fatalf("check = %+v", c)
	}

	if rec := serve(t, agg, "/health/missing"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing code = %d", rec.Code)
	}
}
