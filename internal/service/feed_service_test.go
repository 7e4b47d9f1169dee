package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/feedcache"
	"github.com/phrazzld/taskcal/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	feeds       map[uuid.UUID]domain.Feed
	err         error
	calls       [][]uuid.UUID
	invalidated []uuid.UUID
}

func (f *fakeCache) GetOrBuild(_ context.Context, ids []uuid.UUID, _ domain.DateRange) ([]domain.Feed, error) {
	f.calls = append(f.calls, ids)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Feed, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.feeds[id])
	}
	return out, nil
}

func (f *fakeCache) Invalidate(_ context.Context, id uuid.UUID) error {
	f.invalidated = append(f.invalidated, id)
	return f.err
}

func (f *fakeCache) Stats() feedcache.Stats {
	return feedcache.Stats{Hits: 3, Misses: 1}
}

func testRange(t *testing.T, start, end string) domain.DateRange {
	t.Helper()
	r, err := domain.ParseDateRange(start, end, time.UTC)
	require.NoError(t, err)
	return r
}

func sampleFeed(id uuid.UUID, title string) domain.Feed {
	return domain.Feed{
		UserID: id,
		Tasks: []domain.CalendarEvent{{
			ID:        uuid.NewString(),
			Title:     title,
			Start:     "2024-06-10T14:00:00",
			End:       "2024-06-10T14:00:00",
			Status:    "new",
			ClassName: "status-new",
			UserID:    id.String(),
		}},
		Background: []domain.BackgroundEvent{{
			Start:           "2024-06-10T00:00:00",
			End:             "2024-06-10T09:00:00",
			Rendering:       domain.RenderingBackground,
			BackgroundColor: "#1c1c1c",
			UserID:          id.String(),
			Kind:            domain.KindBusy,
		}},
	}
}

func TestFeedService_GetFeed(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	cache := &fakeCache{feeds: map[uuid.UUID]domain.Feed{
		alice: sampleFeed(alice, "Report (Alice A)"),
		bob:   sampleFeed(bob, "Review (Bob B)"),
	}}
	svc := NewFeedService(cache, FeedServiceConfig{MaxRangeDays: 31}, nil)
	r := testRange(t, "2024-06-10", "2024-06-10")

	t.Run("flattens in request order and de-duplicates", func(t *testing.T) {
		items, err := svc.GetFeed(context.Background(), []uuid.UUID{bob, alice, bob}, r)
		require.NoError(t, err)
		require.Len(t, items, 4)

		assert.Equal(t, []uuid.UUID{bob, alice}, cache.calls[len(cache.calls)-1])
		require.NotNil(t, items[0].Task)
		assert.Equal(t, "Review (Bob B)", items[0].Task.Title)
		require.NotNil(t, items[1].Background)
		assert.Equal(t, bob.String(), items[1].Background.UserID)
		require.NotNil(t, items[2].Task)
		assert.Equal(t, "Report (Alice A)", items[2].Task.Title)
	})

	t.Run("no users", func(t *testing.T) {
		_, err := svc.GetFeed(context.Background(), []uuid.UUID{uuid.Nil}, r)
		assert.ErrorIs(t, err, ErrNoUsers)
	})

	t.Run("range too long", func(t *testing.T) {
		_, err := svc.GetFeed(context.Background(), []uuid.UUID{alice}, testRange(t, "2024-01-01", "2024-03-01"))
		assert.ErrorIs(t, err, domain.ErrInvalidRange)
	})

	t.Run("reversed range", func(t *testing.T) {
		reversed := domain.DateRange{Start: r.End, End: r.Start}
		_, err := svc.GetFeed(context.Background(), []uuid.UUID{alice}, reversed)
		assert.ErrorIs(t, err, domain.ErrInvalidRange)
	})
}

func TestFeedService_RejectsBeforeQuerying(t *testing.T) {
	cache := &fakeCache{}
	svc := NewFeedService(cache, FeedServiceConfig{MaxUsers: 1}, nil)

	_, err := svc.GetFeed(context.Background(), []uuid.UUID{uuid.New(), uuid.New()}, testRange(t, "2024-06-10", "2024-06-10"))

	assert.ErrorIs(t, err, ErrTooManyUsers)
	assert.Empty(t, cache.calls)
}

func TestFeedService_WrapsStoreErrors(t *testing.T) {
	cache := &fakeCache{err: store.ErrUserNotFound}
	svc := NewFeedService(cache, FeedServiceConfig{}, nil)

	_, err := svc.GetFeed(context.Background(), []uuid.UUID{uuid.New()}, testRange(t, "2024-06-10", "2024-06-10"))

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, "get_feed", serviceErr.Op)
}

func TestFeedService_WriteCalendar(t *testing.T) {
	alice := uuid.New()
	cache := &fakeCache{feeds: map[uuid.UUID]domain.Feed{alice: sampleFeed(alice, "Report (Alice A)")}}
	svc := NewFeedService(cache, FeedServiceConfig{}, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	var buf bytes.Buffer
	err := svc.WriteCalendar(context.Background(), &buf, []uuid.UUID{alice}, testRange(t, "2024-06-10", "2024-06-10"))
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "SUMMARY:Report (Alice A)")
}

func TestFeedService_InvalidateAndStats(t *testing.T) {
	cache := &fakeCache{}
	svc := NewFeedService(cache, FeedServiceConfig{}, nil)
	id := uuid.New()

	require.NoError(t, svc.Invalidate(context.Background(), id))
	assert.Equal(t, []uuid.UUID{id}, cache.invalidated)
	assert.Equal(t, int64(3), svc.CacheStats().Hits)
}

func TestUniqueUsers(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, []uuid.UUID{a, b}, UniqueUsers([]uuid.UUID{a, uuid.Nil, b, a, b}))
	assert.Empty(t, UniqueUsers(nil))
}

func TestNewFeedService_PanicsOnNilCache(t *testing.T) {
	assert.Panics(t, func() { NewFeedService(nil, FeedServiceConfig{}, nil) })
}
