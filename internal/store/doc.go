// Package store defines interfaces for data persistence operations.
//
// The entity stores are the source of truth for users, tasks, schedules,
// vacations and holidays. CacheStore is a plain key-value abstraction for
// derived feed snapshots; it knows nothing about their contents.
package store
