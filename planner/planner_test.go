package planner

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/catalogops/cache"
	"github.com/jonwraymond/catalogops/catalog"
	"github.com/jonwraymond/catalogops/docstore"
	"github.com/jonwraymond/catalogops/mutation"
	"github.com/jonwraymond/catalogops/storeerr"
)

// recordingStore counts read calls and can fail or block them.
type recordingStore struct {
	docstore.Store

	mu    sync.Mutex
	calls map[string]int
	err   error

	scanStarted chan struct{}
	scanRelease chan struct{}

	// queryGate, when set, holds the next Query until closed. It fires once.
	queryStarted chan struct{}
	queryGate    chan struct{}
}

func newRecordingStore(inner docstore.Store) *recordingStore {
	return &recordingStore{Store: inner, calls: map[string]int{}}
}

func (s *recordingStore) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.err
}

func (s *recordingStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *recordingStore) Get(ctx context.Context, id string) (docstore.Document, error) {
	if err := s.record("get"); err != nil {
		return nil, err
	}
	return s.Store.Get(ctx, id)
}

func (s *recordingStore) Query(ctx context.Context, in docstore.QueryInput) ([]docstore.Document, error) {
	if err := s.record("query"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	started, gate := s.queryStarted, s.queryGate
	s.queryStarted, s.queryGate = nil, nil
	s.mu.Unlock()

	if gate != nil {
		// Read before blocking so a write can land in between.
		docs, err := s.Store.Query(ctx, in)
		close(started)
		<-gate
		return docs, err
	}
	return s.Store.Query(ctx, in)
}

func (s *recordingStore) Scan(ctx context.Context, in docstore.ScanInput) ([]docstore.Document, error) {
	if err := s.record("scan"); err != nil {
		return nil, err
	}
	if s.scanStarted != nil {
		s.scanStarted <- struct{}{}
		<-s.scanRelease
	}
	return s.Store.Scan(ctx, in)
}

var base = time.Date(2024, 10, 19, 12, 0, 0, 0, time.UTC)

func item(id, category, owner string, price float64, age int) catalog.Item {
	return catalog.Item{
		ID:        id,
		Title:     "Item " + id,
		Price:     price,
		Category:  category,
		OwnerID:   owner,
		Status:    catalog.StatusActive,
		Likes:     []string{},
		Tags:      []string{},
		CreatedAt: base.Add(time.Duration(age) * time.Minute),
		UpdatedAt: base.Add(time.Duration(age) * time.Minute),
	}
}

func seedItems(t *testing.T, s docstore.Store, items ...catalog.Item) {
	t.Helper()
	for _, it := range items {
		doc, err := docstore.Encode(it)
		require.NoError(t, err)
		require.NoError(t, s.Put(context.Background(), doc, docstore.PutIfNotExists))
	}
}

func corpus() []catalog.Item {
	return []catalog.Item{
		item("e1", "electronics", "u1", 25, 1),
		item("e2", "electronics", "u2", 80, 2),
		item("e3", "electronics", "u1", 5, 3),
		item("b1", "books", "u1", 30, 4),
		item("h1", "home", "u3", 60, 5),
	}
}

func newPlanner(t *testing.T, items ...catalog.Item) (*Planner, *recordingStore, *cache.MemoryCache) {
	t.Helper()
	mem := docstore.NewMemoryStore("catalog_items")
	seedItems(t, mem, items...)
	rec := newRecordingStore(mem)
	c := cache.NewMemoryCache(cache.DefaultPolicy())
	return New(rec, c, Config{}), rec, c
}

func itemIDs(items []catalog.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestQuery_CategoryAndPriceUsesIndex(t *testing.T) {
	p, rec, _ := newPlanner(t, corpus()...)

	got, err := p.Query(context.Background(), catalog.FilterSet{
		Category: "electronics",
		MinPrice: catalog.Some(10),
		MaxPrice: catalog.Some(100),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"e2", "e1"}, itemIDs(got), "newest first")
	assert.Equal(t, 1, rec.count("query"))
	assert.Zero(t, rec.count("scan"))
}

func TestQuery_MultipleEqualityFiltersScan(t *testing.T) {
	p, rec, _ := newPlanner(t, corpus()...)

	got, err := p.Query(context.Background(), catalog.FilterSet{Category: "electronics", OwnerID: "u1"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"e1", "e3"}, itemIDs(got))
	assert.Equal(t, 1, rec.count("scan"))
	assert.Zero(t, rec.count("query"))
}

func TestQuery_CacheHitSkipsStore(t *testing.T) {
	p, rec, c := newPlanner(t, corpus()...)
	ctx := context.Background()
	f := catalog.FilterSet{Category: "books"}

	first, err := p.Query(ctx, f)
	require.NoError(t, err)
	second, err := p.Query(ctx, f)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, rec.count("query"))
	assert.Equal(t, 1, c.Len())
}

func TestQuery_WriteDuringLoadIsNotMasked(t *testing.T) {
	p, rec, c := newPlanner(t, corpus()...)
	w := mutation.New(rec.Store, c, mutation.Config{})
	ctx := context.Background()
	f := catalog.FilterSet{Category: "electronics"}

	rec.mu.Lock()
	rec.queryStarted = make(chan struct{})
	rec.queryGate = make(chan struct{})
	started, gate := rec.queryStarted, rec.queryGate
	rec.mu.Unlock()

	type result struct {
		items []catalog.Item
		err   error
	}
	slow := make(chan result, 1)
	go func() {
		items, err := p.Query(ctx, f)
		slow <- result{items, err}
	}()
	<-started

	id, err := w.Create(ctx, catalog.Item{Title: "Headphones", OwnerID: "u9", Category: "electronics", Price: 40})
	require.NoError(t, err)

	// A reader arriving after the write must not join the older load.
	during, err := p.Query(ctx, f)
	require.NoError(t, err)
	assert.Contains(t, itemIDs(during), id)

	close(gate)
	old := <-slow
	require.NoError(t, old.err)
	assert.NotContains(t, itemIDs(old.items), id, "the held load read before the write")

	after, err := p.Query(ctx, f)
	require.NoError(t, err)
	assert.Contains(t, itemIDs(after), id, "stale list re-cached after invalidation")
}

func TestQuery_ResourceMissingDegradesToEmpty(t *testing.T) {
	mem := docstore.NewMemoryStore("catalog_items", docstore.WithoutTable())
	rec := newRecordingStore(mem)
	c := cache.NewMemoryCache(cache.DefaultPolicy())
	p := New(rec, c, Config{})
	ctx := context.Background()

	got, err := p.Query(ctx, catalog.FilterSet{Category: "electronics"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	// Degraded results are not cached: once the table exists, data shows up.
	mem.CreateTable()
	seedItems(t, mem, item("e1", "electronics", "u1", 10, 1))
	got, err = p.Query(ctx, catalog.FilterSet{Category: "electronics"})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, itemIDs(got))
}

func TestQuery_CredentialsInvalidPropagates(t *testing.T) {
	p, rec, c := newPlanner(t, corpus()...)
	rec.err = errors.New("The request signature we calculated does not match: invalid signature")

	_, err := p.Query(context.Background(), catalog.FilterSet{Category: "books"})
	require.Error(t, err)
	assert.ErrorIs(t, err, storeerr.ErrCredentialsInvalid)
	assert.Zero(t, c.Len())
}

func TestQuery_NetworkErrorIsNotRetriedOrCached(t *testing.T) {
	p, rec, c := newPlanner(t, corpus()...)
	rec.err = errors.New("dial tcp 10.0.0.1:443: connection refused")

	_, err := p.Query(context.Background(), catalog.FilterSet{OwnerID: "u1"})
	assert.ErrorIs(t, err, storeerr.ErrNetwork)
	assert.Equal(t, 1, rec.count("query"))
	assert.Zero(t, c.Len())

	se, ok := storeerr.As(err)
	require.True(t, ok)
	assert.Equal(t, "query", se.Op)
}

func TestQuery_InvalidFilter(t *testing.T) {
	p, rec, _ := newPlanner(t)

	_, err := p.Query(context.Background(), catalog.FilterSet{MinPrice: catalog.Some(50), MaxPrice: catalog.Some(10)})
	assert.ErrorIs(t, err, storeerr.ErrValidation)
	assert.ErrorIs(t, err, catalog.ErrInvalidFilter)

	_, err = p.Query(context.Background(), catalog.FilterSet{MinPrice: catalog.Some(math.NaN())})
	assert.ErrorIs(t, err, storeerr.ErrValidation, "non-finite bound is a caller error")
	assert.Zero(t, rec.count("scan"))
}

func TestQuery_SearchIsClientSide(t *testing.T) {
	lamp := item("l1", "home", "u1", 40, 1)
	lamp.Title = "Brass Desk LAMP"
	rug := item("r1", "home", "u1", 90, 2)
	rug.Tags = []string{"Lamp-adjacent"}
	chair := item("c1", "home", "u1", 70, 3)
	p, _, _ := newPlanner(t, lamp, rug, chair)

	got, err := p.Query(context.Background(), catalog.FilterSet{Category: "home", Search: "lamp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "l1"}, itemIDs(got))
}

func TestQuery_ScanSortIsStable(t *testing.T) {
	// Same price: the store's return order must be preserved.
	p, _, _ := newPlanner(t,
		item("x", "a", "u1", 10, 3),
		item("y", "b", "u2", 5, 2),
		item("z", "c", "u3", 10, 1),
	)

	got, err := p.Query(context.Background(), catalog.FilterSet{
		Order: catalog.Order{Field: catalog.OrderPrice, Direction: catalog.Asc},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x", "z"}, itemIDs(got))
}

func TestQuery_LimitTruncates(t *testing.T) {
	p, _, _ := newPlanner(t, corpus()...)

	got, err := p.Query(context.Background(), catalog.FilterSet{
		Limit: 2,
		Order: catalog.Order{Field: catalog.OrderPrice, Direction: catalog.Desc},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"e2", "h1"}, itemIDs(got))
}

func TestQuery_ByIDAppliesRemainingCriteria(t *testing.T) {
	p, rec, _ := newPlanner(t, corpus()...)
	ctx := context.Background()

	got, err := p.Query(ctx, catalog.FilterSet{ID: "e1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, itemIDs(got))

	got, err = p.Query(ctx, catalog.FilterSet{ID: "e1", Category: "books"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = p.Query(ctx, catalog.FilterSet{ID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Equal(t, 3, rec.count("get"))
}

func TestQuery_ScanBulkheadFullIsNetwork(t *testing.T) {
	mem := docstore.NewMemoryStore("catalog_items")
	rec := newRecordingStore(mem)
	rec.scanStarted = make(chan struct{})
	rec.scanRelease = make(chan struct{})
	p := New(rec, cache.NewMemoryCache(cache.DefaultPolicy()), Config{
		ScanConcurrency: 1,
		ScanWait:        10 * time.Millisecond,
	})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := p.Query(ctx, catalog.FilterSet{})
		done <- err
	}()
	<-rec.scanStarted

	_, err := p.Query(ctx, catalog.FilterSet{MinPrice: catalog.Some(1)})
	assert.ErrorIs(t, err, storeerr.ErrNetwork)
	assert.Equal(t, int64(1), p.ScanMetrics().Rejected)

	close(rec.scanRelease)
	require.NoError(t, <-done)
}

func TestGetByID(t *testing.T) {
	p, rec, c := newPlanner(t, corpus()...)
	ctx := context.Background()

	it, err := p.GetByID(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, "books", it.Category)
	assert.True(t, it.CreatedAt.Equal(base.Add(4*time.Minute)))

	_, err = p.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count("get"), "second read served from cache")

	_, ok := c.Get(ctx, cache.ItemKey("b1"))
	assert.True(t, ok)

	missing, err := p.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
	_, ok = c.Get(ctx, cache.ItemKey("nope"))
	assert.False(t, ok, "misses are not cached")

	_, err = p.GetByID(ctx, "")
	assert.ErrorIs(t, err, storeerr.ErrValidation)
}

func TestGetByID_CacheHook(t *testing.T) {
	mem := docstore.NewMemoryStore("catalog_items")
	seedItems(t, mem, corpus()...)

	var hits, misses int
	p := New(mem, cache.NewMemoryCache(cache.DefaultPolicy()), Config{
		CacheHook: func(_ context.Context, _ string, hit bool) {
			if hit {
				hits++
			} else {
				misses++
			}
		},
	})
	ctx := context.Background()
	_, _ = p.GetByID(ctx, "e1")
	_, _ = p.GetByID(ctx, "e1")

	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}
