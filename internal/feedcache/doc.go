// Package feedcache implements the per-user feed cache.
//
// One entry is kept per user. An entry is served only while the fingerprint
// it was built with matches the fingerprint of the current entity store
// state; otherwise the feed is rebuilt and the entry overwritten. Entries
// that cannot be decoded are treated as misses. Writes go through a
// store.CacheStore whose Put replaces an entry atomically, so concurrent
// rebuilds of the same user end with one complete entry.
package feedcache
