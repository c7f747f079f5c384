// Package mutation implements the write side of the trusted catalog.
//
// Every write goes straight to the store, is retried on network failures
// with bounded exponential backoff, and invalidates the cache before it
// returns: the single-item key when one is affected, and every list result
// since any write can move an item in or out of a result set. Collaborators
// such as moderation notifications run after a successful write; their
// failures are logged and never undo the write.
package mutation
