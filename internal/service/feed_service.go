package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/feed"
	"github.com/phrazzld/taskcal/internal/feedcache"
	"github.com/phrazzld/taskcal/internal/platform/logger"
)

// FeedCache is the part of *feedcache.Cache the feed service uses.
type FeedCache interface {
	GetOrBuild(ctx context.Context, userIDs []uuid.UUID, r domain.DateRange) ([]domain.Feed, error)
	Invalidate(ctx context.Context, userID uuid.UUID) error
	Stats() feedcache.Stats
}

// FeedService serves calendar feeds for one or more users.
type FeedService interface {
	// GetFeed returns the flat event list of userIDs over r: every user's
	// task events followed by their background events, users in the order
	// requested. Duplicate ids are served once.
	GetFeed(ctx context.Context, userIDs []uuid.UUID, r domain.DateRange) ([]domain.FeedItem, error)

	// GetFeeds is GetFeed without flattening.
	GetFeeds(ctx context.Context, userIDs []uuid.UUID, r domain.DateRange) ([]domain.Feed, error)

	// WriteCalendar renders the feeds of userIDs over r as iCalendar to w.
	WriteCalendar(ctx context.Context, w io.Writer, userIDs []uuid.UUID, r domain.DateRange) error

	// Invalidate drops the cached feed of a user.
	Invalidate(ctx context.Context, userID uuid.UUID) error

	// CacheStats reports cache hit and miss counters.
	CacheStats() feedcache.Stats
}

// FeedServiceConfig bounds feed requests.
type FeedServiceConfig struct {
	// Location is the time zone events are rendered in.
	Location *time.Location
	// MaxRangeDays rejects longer ranges. Zero disables the check.
	MaxRangeDays int
	// MaxUsers rejects requests naming more distinct users. Zero disables the check.
	MaxUsers int
}

// FeedServiceImpl implements FeedService on top of a FeedCache.
type FeedServiceImpl struct {
	cache  FeedCache
	cfg    FeedServiceConfig
	logger *slog.Logger
	now    func() time.Time
}

var _ FeedService = (*FeedServiceImpl)(nil)

// NewFeedService creates a FeedService. It panics if cache is nil.
func NewFeedService(cache FeedCache, cfg FeedServiceConfig, logger *slog.Logger) *FeedServiceImpl {
	if cache == nil {
		panic("feed cache cannot be nil")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedServiceImpl{
		cache:  cache,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "feed_service")),
		now:    time.Now,
	}
}

// GetFeed implements FeedService.
func (s *FeedServiceImpl) GetFeed(ctx context.Context, userIDs []uuid.UUID, r domain.DateRange) ([]domain.FeedItem, error) {
	feeds, err := s.GetFeeds(ctx, userIDs, r)
	if err != nil {
		return nil, err
	}
	return domain.Flatten(feeds), nil
}

// GetFeeds implements FeedService.
func (s *FeedServiceImpl) GetFeeds(ctx context.Context, userIDs []uuid.UUID, r domain.DateRange) ([]domain.Feed, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ids, err := s.checkRequest(userIDs, r)
	if err != nil {
		log.Debug("rejected feed request", slog.String("error", err.Error()))
		return nil, err
	}

	feeds, err := s.cache.GetOrBuild(ctx, ids, r)
	if err != nil {
		log.Error("failed to get feeds",
			slog.String("error", err.Error()),
			slog.Int("users", len(ids)),
			slog.String("range", r.String()))
		return nil, NewServiceError("feed", "get_feed", err)
	}

	log.Debug("served feeds", slog.Int("users", len(ids)), slog.String("range", r.String()))
	return feeds, nil
}

// WriteCalendar implements FeedService.
func (s *FeedServiceImpl) WriteCalendar(ctx context.Context, w io.Writer, userIDs []uuid.UUID, r domain.DateRange) error {
	feeds, err := s.GetFeeds(ctx, userIDs, r)
	if err != nil {
		return err
	}
	if err := feed.WriteICS(w, feeds, s.cfg.Location, s.now()); err != nil {
		return NewServiceError("feed", "calendar", err)
	}
	return nil
}

// Invalidate implements FeedService.
func (s *FeedServiceImpl) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		return NewServiceError("feed", "invalidate", err)
	}
	return nil
}

// CacheStats implements FeedService.
func (s *FeedServiceImpl) CacheStats() feedcache.Stats {
	return s.cache.Stats()
}

func (s *FeedServiceImpl) checkRequest(userIDs []uuid.UUID, r domain.DateRange) ([]uuid.UUID, error) {
	ids := UniqueUsers(userIDs)
	if len(ids) == 0 {
		return nil, ErrNoUsers
	}
	if s.cfg.MaxUsers > 0 && len(ids) > s.cfg.MaxUsers {
		return nil, fmt.Errorf("%w: %d requested, at most %d allowed", ErrTooManyUsers, len(ids), s.cfg.MaxUsers)
	}
	if r.End.Before(r.Start) {
		return nil, fmt.Errorf("%w: start is after end", domain.ErrInvalidRange)
	}
	if err := r.CheckMaxDays(s.cfg.MaxRangeDays); err != nil {
		return nil, err
	}
	return ids, nil
}

// UniqueUsers drops repeated and nil ids, keeping first-seen order.
func UniqueUsers(userIDs []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	out := make([]uuid.UUID, 0, len(userIDs))
	for _, id := range userIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
