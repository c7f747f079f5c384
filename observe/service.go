package observe

import (
	"context"

	"github.com/jonwraymond/catalogops/catalog"
)

// instrumentedService decorates a catalog.Service with Middleware.
type instrumentedService struct {
	next    catalog.Service
	mw      *Middleware
	backend string
}

// WrapService returns svc with every operation traced, counted and logged.
// backend labels the telemetry ("store" or "proxy").
func WrapService(svc catalog.Service, mw *Middleware, backend string) catalog.Service {
	return &instrumentedService{next: svc, mw: mw, backend: backend}
}

func (s *instrumentedService) meta(name, id string) OpMeta {
	return OpMeta{Name: name, Backend: s.backend, ItemID: id}
}

func (s *instrumentedService) Query(ctx context.Context, filters catalog.FilterSet) ([]catalog.Item, error) {
	var out []catalog.Item
	err := s.mw.Run(ctx, s.meta("query", ""), func(ctx context.Context) error {
		var err error
		out, err = s.next.Query(ctx, filters)
		return err
	})
	return out, err
}

func (s *instrumentedService) GetByID(ctx context.Context, id string) (*catalog.Item, error) {
	return s.item(ctx, "getById", id, func(ctx context.Context) (*catalog.Item, error) {
		return s.next.GetByID(ctx, id)
	})
}

func (s *instrumentedService) Create(ctx context.Context, item catalog.Item) (string, error) {
	var id string
	err := s.mw.Run(ctx, s.meta("create", ""), func(ctx context.Context) error {
		var err error
		id, err = s.next.Create(ctx, item)
		return err
	})
	return id, err
}

func (s *instrumentedService) Update(ctx context.Context, id string, patch catalog.Patch) (*catalog.Item, error) {
	return s.item(ctx, "update", id, func(ctx context.Context) (*catalog.Item, error) {
		return s.next.Update(ctx, id, patch)
	})
}

func (s *instrumentedService) Delete(ctx context.Context, id string) error {
	return s.mw.Run(ctx, s.meta("delete", id), func(ctx context.Context) error {
		return s.next.Delete(ctx, id)
	})
}

func (s *instrumentedService) SetStatus(ctx context.Context, id string, t catalog.Transition) (*catalog.Item, error) {
	return s.item(ctx, "setStatus", id, func(ctx context.Context) (*catalog.Item, error) {
		return s.next.SetStatus(ctx, id, t)
	})
}

func (s *instrumentedService) IncrementViews(ctx context.Context, id string) (*catalog.Item, error) {
	return s.item(ctx, "incrementViews", id, func(ctx context.Context) (*catalog.Item, error) {
		return s.next.IncrementViews(ctx, id)
	})
}

func (s *instrumentedService) ToggleLike(ctx context.Context, id, userID string) (*catalog.Item, error) {
	return s.item(ctx, "toggleLike", id, func(ctx context.Context) (*catalog.Item, error) {
		return s.next.ToggleLike(ctx, id, userID)
	})
}

func (s *instrumentedService) item(ctx context.Context, name, id string, fn func(context.Context) (*catalog.Item, error)) (*catalog.Item, error) {
	var out *catalog.Item
	err := s.mw.Run(ctx, s.meta(name, id), func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

var _ catalog.Service = (*instrumentedService)(nil)
