package store

import "context"

// CacheStore is a key-value store for serialized feed snapshots.
//
// Put must replace the whole value atomically: a concurrent Get observes
// either the previous value or the new one, never a mix. Concurrent Puts to
// the same key may race; the last writer wins.
type CacheStore interface {
	// Get returns the value stored under key.
	// Returns ErrCacheEntryNotFound when there is none.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Scan calls fn for every stored entry. Iteration stops at the first
	// error returned by fn, which Scan returns.
	Scan(ctx context.Context, fn func(key string, data []byte) error) error
}
