package feedcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskcal/internal/store"
	"github.com/robfig/cron/v3"
)

// Janitor removes expired and malformed entries from a CacheStore, either on
// demand or on a cron schedule.
type Janitor struct {
	store  store.CacheStore
	maxAge time.Duration
	logger *slog.Logger
	now    func() time.Time

	cron *cron.Cron
}

// NewJanitor creates a Janitor. A maxAge of zero only removes malformed
// entries.
func NewJanitor(cs store.CacheStore, maxAge time.Duration, log *slog.Logger) *Janitor {
	if log == nil {
		log = slog.Default()
	}
	return &Janitor{
		store:  cs,
		maxAge: maxAge,
		logger: log.With(slog.String("component", "feed_cache_janitor")),
		now:    time.Now,
	}
}

// Sweep deletes every entry that is malformed or older than maxAge and
// returns how many were removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	var expired []string
	cutoff := j.now().Add(-j.maxAge)

	err := j.store.Scan(ctx, func(key string, data []byte) error {
		entry, err := DecodeEntry(data)
		switch {
		case err != nil:
			expired = append(expired, key)
		case j.maxAge > 0 && entry.CachedAt.Before(cutoff):
			expired = append(expired, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan cache: %w", err)
	}

	var errs []error
	removed := 0
	for _, key := range expired {
		if err := j.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Purge deletes every entry and returns how many were removed.
func (j *Janitor) Purge(ctx context.Context) (int, error) {
	var keys []string
	if err := j.store.Scan(ctx, func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("scan cache: %w", err)
	}
	for i, key := range keys {
		if err := j.store.Delete(ctx, key); err != nil {
			return i, fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return len(keys), nil
}

// Start runs Sweep on the given cron schedule until Stop is called.
func (j *Janitor) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		removed, err := j.Sweep(context.Background())
		if err != nil {
			j.logger.Error("cache sweep failed", slog.String("error", err.Error()))
			return
		}
		j.logger.Info("cache sweep completed", slog.Int("removed", removed))
	})
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	j.cron = c
	c.Start()
	j.logger.Info("cache janitor started", slog.String("schedule", schedule))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}
