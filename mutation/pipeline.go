package mutation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/catalogops/cache"
	"github.com/jonwraymond/catalogops/catalog"
	"github.com/jonwraymond/catalogops/docstore"
	"github.com/jonwraymond/catalogops/observe"
	"github.com/jonwraymond/catalogops/resilience"
	"github.com/jonwraymond/catalogops/storeerr"
)

// Config tunes a Pipeline.
type Config struct {
	// Retry configures write retries. RetryIf is always storeerr.IsRetryable,
	// so only network failures are retried.
	// Default: 3 attempts, 100ms initial delay, doubling
	Retry resilience.RetryConfig

	// StoreTimeout bounds each store call.
	// Default: 10s
	StoreTimeout time.Duration

	// IDPrefix prefixes generated ids.
	// Default: catalog.DefaultIDPrefix
	IDPrefix string

	// MaxIDAttempts bounds id regeneration when a generated id is taken.
	// Default: 3
	MaxIDAttempts int

	// Notifier is called after each successful mutation.
	Notifier Notifier

	// Logger records retries and swallowed notifier failures.
	// Default: observe.NopLogger()
	Logger observe.Logger

	// Now supplies timestamps.
	// Default: time.Now
	Now func() time.Time
}

// Pipeline is the write side of the trusted catalog.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: failures are *storeerr.StoreError. Only Network failures are
//     retried; Validation and NotFound return immediately.
//   - Caching: results are never cached; affected entries are invalidated
//     before a successful call returns.
type Pipeline struct {
	store    docstore.Store
	cache    cache.Cache
	retry    *resilience.Retry
	timeout  *resilience.Timeout
	notifier Notifier
	logger   observe.Logger
	now      func() time.Time

	idPrefix      string
	maxIDAttempts int
}

// New creates a Pipeline writing to store and invalidating c.
func New(store docstore.Store, c cache.Cache, cfg Config) *Pipeline {
	if cfg.MaxIDAttempts <= 0 {
		cfg.MaxIDAttempts = 3
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = catalog.DefaultIDPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger.With(observe.F("component", "mutation"))

	retryCfg := cfg.Retry
	retryCfg.RetryIf = storeerr.IsRetryable
	onRetry := retryCfg.OnRetry
	retryCfg.OnRetry = func(ctx context.Context, attempt int, err error, delay time.Duration) {
		logger.Warn(ctx, "retrying write",
			observe.F("attempt", attempt),
			observe.F("delay_ms", delay.Milliseconds()),
			observe.F("error", err),
		)
		if onRetry != nil {
			onRetry(ctx, attempt, err, delay)
		}
	}

	return &Pipeline{
		store:         store,
		cache:         c,
		retry:         resilience.NewRetry(retryCfg),
		timeout:       resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.StoreTimeout}),
		notifier:      cfg.Notifier,
		logger:        logger,
		now:           cfg.Now,
		idPrefix:      cfg.IDPrefix,
		maxIDAttempts: cfg.MaxIDAttempts,
	}
}

// Create validates and stores a new item and returns its id. The item is
// stored as pending (or draft when requested) with zeroed engagement counters.
func (p *Pipeline) Create(ctx context.Context, item catalog.Item) (string, error) {
	if err := item.Validate(); err != nil {
		return "", storeerr.New(storeerr.Validation, "create", err)
	}

	now := p.now().UTC()
	it := item
	it.CreatedAt, it.UpdatedAt = now, now
	if it.Status != catalog.StatusDraft {
		it.Status = catalog.StatusPending
	}
	it.ViewCount = 0
	it.Likes = []string{}
	it.Rating = 0
	it.ReviewCount = 0
	if it.Tags == nil {
		it.Tags = []string{}
	}

	for attempt := 1; ; attempt++ {
		it.ID = catalog.NewID(p.idPrefix, now)
		doc, err := docstore.Encode(it)
		if err != nil {
			return "", storeerr.New(storeerr.Unknown, "create", err)
		}
		err = p.write(ctx, "create", func(ctx context.Context) error {
			return p.store.Put(ctx, doc, docstore.PutIfNotExists)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, docstore.ErrConditionFailed) || attempt >= p.maxIDAttempts {
			return "", err
		}
		p.logger.Warn(ctx, "generated id already exists, regenerating",
			observe.F("item_id", it.ID), observe.F("attempt", attempt))
	}

	p.cache.ClearAll(ctx)
	p.notify(ctx, Event{Type: EventCreated, ItemID: it.ID, Item: &it})
	return it.ID, nil
}

// Update writes only the patched fields plus a fresh updatedAt. A missing id
// fails with NotFound.
func (p *Pipeline) Update(ctx context.Context, id string, patch catalog.Patch) (*catalog.Item, error) {
	if err := patch.Validate(); err != nil {
		return nil, storeerr.New(storeerr.Validation, "update", err)
	}
	set := patch.Fields()
	set["updatedAt"] = p.now().UTC()

	it, err := p.update(ctx, "update", id, docstore.Update{Set: set})
	if err != nil {
		return nil, err
	}
	p.notify(ctx, Event{Type: EventUpdated, ItemID: id, Item: it})
	return it, nil
}

// Delete removes the item. Deleting a missing id fails with NotFound.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return storeerr.New(storeerr.Validation, "delete", catalog.ErrInvalidItem)
	}
	err := p.write(ctx, "delete", func(ctx context.Context) error {
		return p.store.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	p.invalidate(ctx, id)
	p.notify(ctx, Event{Type: EventDeleted, ItemID: id})
	return nil
}

// SetStatus applies a status transition.
func (p *Pipeline) SetStatus(ctx context.Context, id string, t catalog.Transition) (*catalog.Item, error) {
	target, ok := t.Target()
	if !ok {
		return nil, storeerr.New(storeerr.Validation, "setStatus", fmt.Errorf("%w: unknown transition %q", catalog.ErrInvalidItem, t))
	}
	it, err := p.update(ctx, "setStatus", id, docstore.Update{Set: map[string]any{
		"status":    string(target),
		"updatedAt": p.now().UTC(),
	}})
	if err != nil {
		return nil, err
	}
	p.notify(ctx, Event{Type: EventStatusChanged, ItemID: id, Item: it, Transition: t})
	return it, nil
}

// IncrementViews adds one to the view counter. updatedAt is left alone.
func (p *Pipeline) IncrementViews(ctx context.Context, id string) (*catalog.Item, error) {
	return p.update(ctx, "incrementViews", id, docstore.Update{
		Increment: map[string]float64{"viewCount": 1},
	})
}

// ToggleLike adds userID to the like set, or removes it when present.
func (p *Pipeline) ToggleLike(ctx context.Context, id, userID string) (*catalog.Item, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, storeerr.New(storeerr.Validation, "toggleLike", fmt.Errorf("%w: userId is required", catalog.ErrInvalidItem))
	}
	it, err := p.update(ctx, "toggleLike", id, docstore.Update{
		Toggle: map[string]string{"likes": userID},
	})
	if err != nil {
		return nil, err
	}
	ev := Event{Type: EventUnliked, ItemID: id, Item: it, UserID: userID}
	if it.LikedBy(userID) {
		ev.Type = EventLiked
	}
	p.notify(ctx, ev)
	return it, nil
}

// update applies u to id and invalidates the affected cache entries.
func (p *Pipeline) update(ctx context.Context, op, id string, u docstore.Update) (*catalog.Item, error) {
	if strings.TrimSpace(id) == "" {
		return nil, storeerr.New(storeerr.Validation, op, catalog.ErrInvalidItem)
	}
	var doc docstore.Document
	err := p.write(ctx, op, func(ctx context.Context) error {
		var err error
		doc, err = p.store.Update(ctx, id, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.invalidate(ctx, id)

	var it catalog.Item
	if err := doc.Decode(&it); err != nil {
		return nil, storeerr.New(storeerr.Unknown, op, err)
	}
	return &it, nil
}

// singleShot lists writes that are not idempotent. A network error may hide
// a write that landed, so they run once: a lost view or like is preferred
// over a double count or a like flipping back.
var singleShot = map[string]bool{
	"incrementViews": true,
	"toggleLike":     true,
}

// write runs one store call under the timeout and retry policy. Each attempt
// is classified so the retry policy can tell network failures apart.
func (p *Pipeline) write(ctx context.Context, op string, fn func(context.Context) error) error {
	if singleShot[op] {
		if err := p.timeout.Execute(ctx, fn); err != nil {
			return storeerr.ClassifyOp(op, err)
		}
		return nil
	}
	err := p.retry.Execute(ctx, func(ctx context.Context) error {
		if err := p.timeout.Execute(ctx, fn); err != nil {
			return storeerr.ClassifyOp(op, err)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, resilience.ErrMaxRetriesExceeded) {
		p.logger.Error(ctx, "write retries exhausted", observe.F("op", op), observe.F("error", err))
	}
	return storeerr.ClassifyOp(op, err)
}

func (p *Pipeline) invalidate(ctx context.Context, id string) {
	p.cache.Invalidate(ctx, cache.MatchKey(cache.ItemKey(id)))
	p.cache.ClearAll(ctx)
}

func (p *Pipeline) notify(ctx context.Context, ev Event) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Notify(ctx, ev); err != nil {
		p.logger.Warn(ctx, "notifier failed",
			observe.F("event", string(ev.Type)),
			observe.F("item_id", ev.ItemID),
			observe.F("error", err),
		)
	}
}

var _ catalog.Writer = (*Pipeline)(nil)
