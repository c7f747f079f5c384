package cache

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces a payload on a cache miss. The boolean reports whether
// the payload may be stored; degraded results are returned but not cached.
type LoadFunc func(ctx context.Context) (payload []byte, store bool, err error)

// HitHook observes each lookup outcome.
type HitHook func(ctx context.Context, key string, hit bool)

// ReadThrough wraps a Cache with load-on-miss.
//
// Concurrent misses for one key share a single load, but only within one
// cache generation: a caller arriving after an invalidation starts a fresh
// load instead of joining one that may predate the write. A load result is
// stored only if no invalidation happened while it ran. Errors are NOT
// cached.
type ReadThrough struct {
	cache Cache
	group singleflight.Group
	hook  HitHook
}

// NewReadThrough creates a read-through loader over c. hook may be nil.
func NewReadThrough(c Cache, hook HitHook) *ReadThrough {
	return &ReadThrough{cache: c, hook: hook}
}

// Cache returns the underlying cache.
func (r *ReadThrough) Cache() Cache {
	return r.cache
}

// Load returns the cached payload for key, or runs load and caches its result.
//
// The shared load runs detached from any single caller's cancellation, so
// load must bound its own store calls. A caller whose ctx ends stops waiting
// and gets ctx.Err(); the others still receive the result.
func (r *ReadThrough) Load(ctx context.Context, key string, load LoadFunc) ([]byte, error) {
	if cached, ok := r.cache.Get(ctx, key); ok {
		r.observe(ctx, key, true)
		return cached, nil
	}
	r.observe(ctx, key, false)

	gen := r.cache.Generation()
	loadCtx := context.WithoutCancel(ctx)
	flight := key + "@" + strconv.FormatUint(gen, 10)

	ch := r.group.DoChan(flight, func() (any, error) {
		payload, store, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if store {
			r.cache.PutIfGeneration(loadCtx, key, payload, gen)
		}
		return payload, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *ReadThrough) observe(ctx context.Context, key string, hit bool) {
	if r.hook != nil {
		r.hook(ctx, key, hit)
	}
}
