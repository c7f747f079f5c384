// Package cache provides the process-wide catalog result cache.
//
// It provides a Cache interface with a memory implementation, SHA-256-based
// key derivation for filter sets, TTL policies, and a read-through loader that
// coalesces concurrent misses.
//
// Keys are namespaced: list results live under "list:<hash>" and single items
// under "item:<id>". Writers invalidate with predicates over those prefixes.
package cache
