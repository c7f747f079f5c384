package cache

import (
	"context"
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Key namespaces.
const (
	NamespaceList = "list"
	NamespaceItem = "item"

	KeyPrefixList = NamespaceList + ":"
	KeyPrefixItem = NamespaceItem + ":"
)

// Sentinel errors for cache operations.
var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Cache is the interface for caching catalog read results.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Consistency: last write wins; there is no error surface. A load that
//   started before an invalidation must not be stored after it.
// - Expiry: an entry is a miss once its age reaches the policy TTL.
type Cache interface {
	// Get retrieves a cached payload. Returns (nil, false) on miss or expiry.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Put stores a payload, overwriting any previous entry for key.
	Put(ctx context.Context, key string, payload []byte)

	// Invalidate removes every entry whose key satisfies pred and reports
	// how many were removed.
	Invalidate(ctx context.Context, pred func(key string) bool) int

	// ClearAll removes every entry.
	ClearAll(ctx context.Context)

	// Generation advances whenever Invalidate or ClearAll runs.
	Generation() uint64

	// PutIfGeneration is Put that only succeeds while Generation still
	// equals gen. Reports whether the payload was stored.
	PutIfGeneration(ctx context.Context, key string, payload []byte, gen uint64) bool
}

// ItemKey returns the cache key for a single item.
func ItemKey(id string) string {
	return KeyPrefixItem + id
}

// IsListKey reports whether key holds a list result.
func IsListKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefixList)
}

// MatchKey returns a predicate matching exactly key.
func MatchKey(key string) func(string) bool {
	return func(k string) bool { return k == key }
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
