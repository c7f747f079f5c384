package cache

import "time"

// Policy configures caching behavior.
type Policy struct {
	// TTL is how long an entry stays valid after it is written.
	// If zero, caching is disabled.
	TTL time.Duration

	// SweepInterval is how often the background janitor removes expired
	// entries. If zero, expired entries are only removed lazily on Get.
	SweepInterval time.Duration
}

// DefaultPolicy returns the default caching policy.
// TTL: 5 minutes, SweepInterval: 1 minute
func DefaultPolicy() Policy {
	return Policy{
		TTL:           5 * time.Minute,
		SweepInterval: 1 * time.Minute,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.TTL > 0
}

// Expired reports whether an entry written at insertedAt is stale at now.
func (p Policy) Expired(insertedAt, now time.Time) bool {
	return now.Sub(insertedAt) >= p.TTL
}
