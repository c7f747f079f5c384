package planner

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/jonwraymond/catalogops/cache"
	"github.com/jonwraymond/catalogops/catalog"
	"github.com/jonwraymond/catalogops/docstore"
	"github.com/jonwraymond/catalogops/observe"
	"github.com/jonwraymond/catalogops/resilience"
	"github.com/jonwraymond/catalogops/storeerr"
)

// Config tunes a Planner.
type Config struct {
	// ScanConcurrency bounds concurrent full scans.
	// Default: 4
	ScanConcurrency int

	// ScanWait is how long a scan waits for a free slot.
	// Default: 250ms
	ScanWait time.Duration

	// StoreTimeout bounds each store call.
	// Default: 10s
	StoreTimeout time.Duration

	// CacheHook observes cache hits and misses.
	CacheHook cache.HitHook

	// Logger receives degraded-read notices.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// Planner is the read side of the trusted catalog.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: failures are *storeerr.StoreError, classified exactly once.
//     NotFound and ResourceMissing degrade to an empty result.
//   - Caching: successful results are cached; degraded and failed reads are not.
type Planner struct {
	store   docstore.Store
	reads   *cache.ReadThrough
	scans   *resilience.Bulkhead
	timeout *resilience.Timeout
	logger  observe.Logger
}

// New creates a Planner reading from store through c.
func New(store docstore.Store, c cache.Cache, cfg Config) *Planner {
	if cfg.ScanWait <= 0 {
		cfg.ScanWait = 250 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	return &Planner{
		store: store,
		reads: cache.NewReadThrough(c, cfg.CacheHook),
		scans: resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: cfg.ScanConcurrency,
			MaxWait:       cfg.ScanWait,
		}),
		timeout: resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.StoreTimeout}),
		logger:  cfg.Logger.With(observe.F("component", "planner")),
	}
}

// ScanMetrics reports the scan bulkhead's state.
func (p *Planner) ScanMetrics() resilience.BulkheadMetrics {
	return p.scans.Metrics()
}

// Query returns the items matching filters.
func (p *Planner) Query(ctx context.Context, filters catalog.FilterSet) ([]catalog.Item, error) {
	f := filters.Normalize()
	if err := f.Validate(); err != nil {
		return nil, storeerr.New(storeerr.Validation, "query", err)
	}

	key, err := cache.ListKey(f.Canonical())
	if err != nil {
		return nil, storeerr.New(storeerr.Unknown, "query", err)
	}

	payload, err := p.reads.Load(ctx, key, func(ctx context.Context) ([]byte, bool, error) {
		items, err := p.execute(ctx, Choose(f), f)
		if err != nil {
			se := storeerr.ClassifyOp("query", err)
			if se.Kind.ReadRecovery() == storeerr.EmptyResult {
				p.degraded(ctx, "query degraded to empty result", se)
				return []byte("[]"), false, nil
			}
			return nil, false, se
		}
		data, err := json.Marshal(items)
		if err != nil {
			return nil, false, storeerr.New(storeerr.Unknown, "query", err)
		}
		return data, true, nil
	})
	if err != nil {
		return nil, err
	}

	out := []catalog.Item{}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, storeerr.New(storeerr.Unknown, "query", err)
	}
	return out, nil
}

// GetByID returns the item, or nil when it does not exist.
func (p *Planner) GetByID(ctx context.Context, id string) (*catalog.Item, error) {
	if id == "" {
		return nil, storeerr.New(storeerr.Validation, "getById", catalog.ErrInvalidItem)
	}

	payload, err := p.reads.Load(ctx, cache.ItemKey(id), func(ctx context.Context) ([]byte, bool, error) {
		it, err := p.get(ctx, id)
		if err != nil {
			se := storeerr.ClassifyOp("getById", err)
			if se.Kind.ReadRecovery() == storeerr.EmptyResult {
				p.degraded(ctx, "get degraded to empty result", se, observe.F("item_id", id))
				return []byte("null"), false, nil
			}
			return nil, false, se
		}
		data, err := json.Marshal(it)
		if err != nil {
			return nil, false, storeerr.New(storeerr.Unknown, "getById", err)
		}
		return data, true, nil
	})
	if err != nil {
		return nil, err
	}

	var it *catalog.Item
	if err := json.Unmarshal(payload, &it); err != nil {
		return nil, storeerr.New(storeerr.Unknown, "getById", err)
	}
	return it, nil
}

// execute runs plan and applies the client-side steps: search, sort, limit.
func (p *Planner) execute(ctx context.Context, plan Plan, f catalog.FilterSet) ([]catalog.Item, error) {
	var docs []docstore.Document
	var err error

	switch plan.Kind {
	case PlanGet:
		it, err := p.get(ctx, plan.ID)
		if err != nil {
			return nil, err
		}
		if !matches(f, it) || !f.MatchesSearch(it) {
			return []catalog.Item{}, nil
		}
		return []catalog.Item{*it}, nil

	case PlanIndex:
		err = p.timeout.Execute(ctx, func(ctx context.Context) error {
			var queryErr error
			docs, queryErr = p.store.Query(ctx, docstore.QueryInput{
				Index:     plan.Index,
				Key:       plan.Key,
				Filter:    plan.Filter,
				Ascending: plan.Ascending,
				Limit:     plan.StoreLimit,
			})
			return queryErr
		})

	default:
		err = p.scans.Execute(ctx, func(ctx context.Context) error {
			return p.timeout.Execute(ctx, func(ctx context.Context) error {
				var scanErr error
				docs, scanErr = p.store.Scan(ctx, docstore.ScanInput{Filter: plan.Filter})
				return scanErr
			})
		})
	}
	if err != nil {
		return nil, err
	}

	items := make([]catalog.Item, 0, len(docs))
	for _, doc := range docs {
		var it catalog.Item
		if err := doc.Decode(&it); err != nil {
			return nil, err
		}
		if f.MatchesSearch(&it) {
			items = append(items, it)
		}
	}
	if plan.SortClient {
		slices.SortStableFunc(items, func(a, b catalog.Item) int {
			return f.Order.Compare(&a, &b)
		})
	}
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return items, nil
}

func (p *Planner) get(ctx context.Context, id string) (*catalog.Item, error) {
	var doc docstore.Document
	err := p.timeout.Execute(ctx, func(ctx context.Context) error {
		var err error
		doc, err = p.store.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	var it catalog.Item
	if err := doc.Decode(&it); err != nil {
		return nil, err
	}
	return &it, nil
}

// degraded logs a read that fell back to an empty result. A plain miss is
// routine; a missing table is an operator concern.
func (p *Planner) degraded(ctx context.Context, msg string, se *storeerr.StoreError, fields ...observe.Field) {
	fields = append(fields, observe.F("error", se), observe.F("error_kind", se.Kind.String()))
	if se.Kind == storeerr.NotFound {
		p.logger.Debug(ctx, msg, fields...)
		return
	}
	p.logger.Warn(ctx, msg, fields...)
}

var _ catalog.Reader = (*Planner)(nil)
