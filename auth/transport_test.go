package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMiddleware_AttachesIdentity(t *testing.T) {
	// Real clock: the server validates tokens minted just now.
	iss, err := NewTokenIssuer(IssuerConfig{Key: testKey, Issuer: "catalog-web"})
	if err != nil {
		t.Fatal(err)
	}
	authn, err := NewJWTAuthenticator(JWTConfig{Key: testKey, Issuer: "catalog-web", Leeway: time.Minute})
	if err != nil {
		t.Fatal(err)
	}

	var principal string
	handler := Middleware(authn, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := &http.Client{Transport: &Transport{Source: iss}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if principal != "catalog-proxy" {
		t.Errorf("principal = %q, want catalog-proxy", principal)
	}

	resp, err = http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", resp.StatusCode)
	}
}

func TestMiddleware_CustomFailure(t *testing.T) {
	authn, _ := NewJWTAuthenticator(JWTConfig{Key: testKey})
	var got error
	handler := Middleware(authn, func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	})(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if !errors.Is(got, ErrMissingCredentials) {
		t.Errorf("error = %v, want ErrMissingCredentials", got)
	}
}

type failingSource struct{}

func (failingSource) Token() (string, error) { return "", errors.New("no key") }

func TestTransport_SourceError(t *testing.T) {
	client := &http.Client{Transport: &Transport{Source: failingSource{}}}
	if _, err := client.Get("http://127.0.0.1:1"); err == nil {
		t.Fatal("expected error from token source")
	}
}
