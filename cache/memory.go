package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache is an in-memory cache implementation.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	policy  Policy
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64

	// gen advances on every Invalidate and ClearAll; guarded by mu.
	gen uint64

	janitorMu sync.Mutex
	stop      chan struct{}
	done      chan struct{}
}

type cacheEntry struct {
	value      []byte
	insertedAt time.Time
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Option configures a MemoryCache.
type Option func(*MemoryCache)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemoryCache creates a new in-memory cache with the given policy.
func NewMemoryCache(policy Policy, opts ...Option) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*cacheEntry),
		policy:  policy,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the cache policy.
func (c *MemoryCache) Policy() Policy {
	return c.policy
}

// Get retrieves a value from the cache. Returns (nil, false) on miss or expiry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	if c.policy.Expired(entry.insertedAt, c.now()) {
		// Expired - clean up lazily, unless a newer write replaced it.
		c.mu.Lock()
		if c.entries[key] == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return entry.value, true
}

// Put stores a value stamped with the current time. Invalid keys and a
// disabled policy make Put a no-op.
func (c *MemoryCache) Put(_ context.Context, key string, payload []byte) {
	if !c.policy.ShouldCache() || ValidateKey(key) != nil {
		return
	}

	c.mu.Lock()
	c.putLocked(key, payload)
	c.mu.Unlock()
}

// PutIfGeneration stores payload only while the cache is still at gen, so
// a load that raced a write cannot re-populate what the write removed.
func (c *MemoryCache) PutIfGeneration(_ context.Context, key string, payload []byte, gen uint64) bool {
	if !c.policy.ShouldCache() || ValidateKey(key) != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.putLocked(key, payload)
	return true
}

func (c *MemoryCache) putLocked(key string, payload []byte) {
	c.entries[key] = &cacheEntry{
		value:      payload,
		insertedAt: c.now(),
	}
}

// Generation returns the current invalidation generation.
func (c *MemoryCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Invalidate removes entries whose key satisfies pred and advances the
// generation.
func (c *MemoryCache) Invalidate(_ context.Context, pred func(key string) bool) int {
	if pred == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return c.removeLocked(func(key string, _ *cacheEntry) bool { return pred(key) })
}

func (c *MemoryCache) removeLocked(pred func(key string, e *cacheEntry) bool) int {
	n := 0
	for key, entry := range c.entries {
		if pred(key, entry) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// ClearAll removes every entry and advances the generation.
func (c *MemoryCache) ClearAll(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.gen++
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit, miss and entry counts.
func (c *MemoryCache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.Len(),
	}
}

// Sweep removes all expired entries and reports how many were removed.
// Expiry does not advance the generation.
func (c *MemoryCache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(func(_ string, e *cacheEntry) bool {
		return c.policy.Expired(e.insertedAt, now)
	})
}

// Init starts the background janitor when the policy has a sweep interval.
// Calling Init on a running cache is a no-op.
func (c *MemoryCache) Init() {
	if c.policy.SweepInterval <= 0 {
		return
	}
	c.janitorMu.Lock()
	defer c.janitorMu.Unlock()
	if c.stop != nil {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.janitor(c.policy.SweepInterval, c.stop, c.done)
}

// Shutdown stops the janitor and waits for it to exit or ctx to end.
func (c *MemoryCache) Shutdown(ctx context.Context) error {
	c.janitorMu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.janitorMu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *MemoryCache) janitor(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Ensure MemoryCache implements Cache
var _ Cache = (*MemoryCache)(nil)
