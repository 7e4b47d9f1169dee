package feedcache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/platform/logger"
	"github.com/phrazzld/taskcal/internal/store"
)

// Source computes feeds and fingerprints. *feed.Builder satisfies it.
type Source interface {
	Fingerprint(ctx context.Context, userID uuid.UUID, r domain.DateRange) (string, error)
	Build(ctx context.Context, userID uuid.UUID, r domain.DateRange) (domain.Feed, error)
}

// Stats counts cache outcomes since the cache was created.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Malformed   int64 `json:"malformed"`
	WriteErrors int64 `json:"write_errors"`
}

// Cache serves feeds from a CacheStore, rebuilding stale entries.
type Cache struct {
	store  store.CacheStore
	source Source
	logger *slog.Logger
	now    func() time.Time

	hits, misses, malformed, writeErrors atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the clock used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache. It panics if cs or src is nil.
func New(cs store.CacheStore, src Source, log *slog.Logger, opts ...Option) *Cache {
	if cs == nil || src == nil {
		panic("cache store and source cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Cache{
		store:  cs,
		source: src,
		logger: log.With(slog.String("component", "feed_cache")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrBuild returns the feeds of userIDs over r, in the order requested.
// Entity store errors abort the call; cache read and write errors do not.
func (c *Cache) GetOrBuild(ctx context.Context, userIDs []uuid.UUID, r domain.DateRange) ([]domain.Feed, error) {
	feeds := make([]domain.Feed, 0, len(userIDs))
	for _, id := range userIDs {
		f, err := c.Get(ctx, id, r)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, f)
	}
	return feeds, nil
}

// Get returns the feed of one user, from the cache when the stored entry is
// current and rebuilt otherwise.
func (c *Cache) Get(ctx context.Context, userID uuid.UUID, r domain.DateRange) (domain.Feed, error) {
	log := logger.FromContextOrDefault(ctx, c.logger).With(slog.String("user_id", userID.String()))

	// The fingerprint is taken before building, so a mutation racing with the
	// build can only leave an entry that looks older than its data.
	fingerprint, err := c.source.Fingerprint(ctx, userID, r)
	if err != nil {
		return domain.Feed{}, err
	}

	if entry, ok := c.load(ctx, log, userID); ok {
		if entry.Fingerprint == fingerprint && entry.UserID == userID {
			c.hits.Add(1)
			log.Debug("feed cache hit")
			return entry.Feed(), nil
		}
		log.Debug("feed cache entry stale",
			slog.String("cached_fingerprint", entry.Fingerprint),
			slog.String("fingerprint", fingerprint))
	}
	c.misses.Add(1)

	feed, err := c.source.Build(ctx, userID, r)
	if err != nil {
		return domain.Feed{}, err
	}

	entry := NewEntry(feed, fingerprint, c.now())
	data, err := entry.Encode()
	if err == nil {
		err = c.store.Put(ctx, Key(userID), data)
	}
	if err != nil {
		c.writeErrors.Add(1)
		log.Warn("failed to write feed cache entry", slog.String("error", err.Error()))
	}

	return entry.Feed(), nil
}

func (c *Cache) load(ctx context.Context, log *slog.Logger, userID uuid.UUID) (Entry, bool) {
	data, err := c.store.Get(ctx, Key(userID))
	if err != nil {
		if !errors.Is(err, store.ErrCacheEntryNotFound) {
			log.Warn("failed to read feed cache entry", slog.String("error", err.Error()))
		}
		return Entry{}, false
	}

	entry, err := DecodeEntry(data)
	if err != nil {
		c.malformed.Add(1)
		log.Warn("discarding malformed feed cache entry", slog.String("error", err.Error()))
		return Entry{}, false
	}
	return entry, true
}

// Invalidate drops the entry of a user.
func (c *Cache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.store.Delete(ctx, Key(userID))
}

// Lookup returns the stored entry of a user without checking freshness.
func (c *Cache) Lookup(ctx context.Context, userID uuid.UUID) (Entry, error) {
	data, err := c.store.Get(ctx, Key(userID))
	if err != nil {
		return Entry{}, err
	}
	return DecodeEntry(data)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Malformed:   c.malformed.Load(),
		WriteErrors: c.writeErrors.Load(),
	}
}
