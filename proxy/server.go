package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jonwraymond/catalogops/auth"
	"github.com/jonwraymond/catalogops/catalog"
	"github.com/jonwraymond/catalogops/execctx"
	"github.com/jonwraymond/catalogops/observe"
	"github.com/jonwraymond/catalogops/resilience"
	"github.com/jonwraymond/catalogops/storeerr"
)

// ServerConfig configures a Server.
type ServerConfig struct {
	// Service is the trusted catalog being exposed.
	Service catalog.Service

	// Authenticator verifies service tokens.
	Authenticator auth.Authenticator

	// Authorizer checks the token's scopes per action.
	// Default: auth.DefaultScopeAuthorizer()
	Authorizer auth.Authorizer

	// RateLimiter, when set, rejects excess requests with 429.
	RateLimiter *resilience.RateLimiter

	// MaxBodyBytes bounds request bodies.
	// Default: 1 MiB
	MaxBodyBytes int64

	// Logger receives request failures.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// Server exposes a catalog.Service over HTTP.
type Server struct {
	svc     catalog.Service
	authn   auth.Authenticator
	authz   auth.Authorizer
	limiter *resilience.RateLimiter
	maxBody int64
	logger  observe.Logger
}

// NewServer validates cfg and returns a Server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Service == nil {
		return nil, ErrServiceRequired
	}
	if cfg.Authenticator == nil {
		return nil, ErrAuthenticatorRequired
	}
	if cfg.Authorizer == nil {
		cfg.Authorizer = auth.DefaultScopeAuthorizer()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	return &Server{
		svc:     cfg.Service,
		authn:   cfg.Authenticator,
		authz:   cfg.Authorizer,
		limiter: cfg.RateLimiter,
		maxBody: cfg.MaxBodyBytes,
		logger:  cfg.Logger,
	}, nil
}

// Routes returns the /v1/items API. Callers mount health and metrics next
// to it.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/v1/items", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Use(auth.Middleware(s.authn, s.unauthorized))
		r.Use(tagProxied)

		r.Get("/", s.withAction(auth.ActionRead, s.handleQuery))
		r.Post("/", s.withAction(auth.ActionWrite, s.handleCreate))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withAction(auth.ActionRead, s.handleGet))
			r.Patch("/", s.withAction(auth.ActionWrite, s.handleUpdate))
			r.Delete("/", s.withAction(auth.ActionWrite, s.handleDelete))
			r.Post("/status", s.withAction(auth.ActionWrite, s.handleStatus))
			r.Post("/views", s.withAction(auth.ActionWrite, s.handleViews))
			r.Post("/likes", s.withAction(auth.ActionWrite, s.handleLike))
		})
	})
	return r
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	f, err := catalog.ParseValues(r.URL.Query())
	if err != nil {
		s.fail(w, r, storeerr.New(storeerr.Validation, "query", err))
		return
	}
	items, err := s.svc.Query(r.Context(), f)
	if err != nil {
		if storeerr.KindOf(err) == storeerr.ResourceMissing {
			writeData(w, http.StatusOK, []catalog.Item{})
			return
		}
		s.fail(w, r, storeerr.ClassifyOp("query", err))
		return
	}
	if items == nil {
		items = []catalog.Item{}
	}
	writeData(w, http.StatusOK, items)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	it, err := s.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if k := storeerr.KindOf(err); k == storeerr.ResourceMissing || k == storeerr.NotFound {
			writeData(w, http.StatusOK, nil)
			return
		}
		s.fail(w, r, storeerr.ClassifyOp("getById", err))
		return
	}
	writeData(w, http.StatusOK, it)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var item catalog.Item
	if !s.decode(w, r, "create", &item) {
		return
	}
	id, err := s.svc.Create(r.Context(), item)
	if err != nil {
		s.fail(w, r, storeerr.ClassifyOp("create", err))
		return
	}
	writeData(w, http.StatusCreated, CreateResponse{ID: id})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch catalog.Patch
	if !s.decode(w, r, "update", &patch) {
		return
	}
	s.respondItem(w, r, "update", func(ctx context.Context, id string) (*catalog.Item, error) {
		return s.svc.Update(ctx, id, patch)
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, storeerr.ClassifyOp("delete", err))
		return
	}
	writeEnvelope(w, http.StatusOK, Envelope{Success: true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !s.decode(w, r, "setStatus", &req) {
		return
	}
	s.respondItem(w, r, "setStatus", func(ctx context.Context, id string) (*catalog.Item, error) {
		return s.svc.SetStatus(ctx, id, catalog.Transition(req.Transition))
	})
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	s.respondItem(w, r, "incrementViews", s.svc.IncrementViews)
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	var req LikeRequest
	if !s.decode(w, r, "toggleLike", &req) {
		return
	}
	s.respondItem(w, r, "toggleLike", func(ctx context.Context, id string) (*catalog.Item, error) {
		return s.svc.ToggleLike(ctx, id, req.UserID)
	})
}

func (s *Server) respondItem(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, string) (*catalog.Item, error)) {
	it, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, storeerr.ClassifyOp(op, err))
		return
	}
	writeData(w, http.StatusOK, it)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(dst); err != nil {
		s.fail(w, r, storeerr.New(storeerr.Validation, op, fmt.Errorf("decode body: %w", err)))
		return false
	}
	return true
}

// withAction authorizes the authenticated identity for action.
func (s *Server) withAction(action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.authz.Authorize(r.Context(), &auth.AuthzRequest{
			Subject:  auth.IdentityFromContext(r.Context()),
			Action:   action,
			Resource: chi.URLParam(r, "id"),
		})
		if err != nil {
			s.logger.Warn(r.Context(), "proxy request forbidden",
				observe.F("path", r.URL.Path),
				observe.F("error", err),
			)
			writeErrorStatus(w, http.StatusForbidden, storeerr.New(storeerr.CredentialsInvalid, action, err))
			return
		}
		next(w, r)
	}
}

// tagProxied marks the request as having crossed the network boundary.
func tagProxied(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(execctx.WithContext(r.Context(), execctx.Proxied)))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := s.limiter.Reserve()
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeErrorStatus(w, http.StatusTooManyRequests, storeerr.New(storeerr.Network, "", ErrRateLimited))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		err = auth.ErrInvalidCredentials
	}
	s.logger.Warn(r.Context(), "proxy authentication failed",
		observe.F("path", r.URL.Path),
		observe.F("error", err),
	)
	writeError(w, storeerr.New(storeerr.CredentialsInvalid, "authenticate", err))
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, se *storeerr.StoreError) {
	code := HTTPStatus(se.Kind)
	if code >= http.StatusInternalServerError {
		s.logger.Warn(r.Context(), "proxy request failed",
			observe.F("path", r.URL.Path),
			observe.F("op", se.Op),
			observe.F("kind", se.Kind.String()),
			observe.F("error", se),
		)
	}
	writeError(w, se)
}
