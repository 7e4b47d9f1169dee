package feedcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
)

// EntryVersion is the layout version written into every entry. Entries with
// any other version are treated as malformed.
const EntryVersion = 1

// ErrMalformedEntry is returned when persisted bytes are not a usable entry.
var ErrMalformedEntry = errors.New("malformed cache entry")

// Entry is the persisted form of one user's feed.
type Entry struct {
	Version     int                      `json:"version"`
	UserID      uuid.UUID                `json:"user_id"`
	Fingerprint string                   `json:"fingerprint"`
	LastUpdated string                   `json:"last_updated"`
	CachedAt    time.Time                `json:"cached_at"`
	Tasks       []domain.CalendarEvent   `json:"tasks"`
	Background  []domain.BackgroundEvent `json:"background_events"`
}

// wireEntry distinguishes absent event lists from empty ones.
type wireEntry struct {
	Version     int                       `json:"version"`
	UserID      uuid.UUID                 `json:"user_id"`
	Fingerprint string                    `json:"fingerprint"`
	LastUpdated string                    `json:"last_updated"`
	CachedAt    time.Time                 `json:"cached_at"`
	Tasks       *[]domain.CalendarEvent   `json:"tasks"`
	Background  *[]domain.BackgroundEvent `json:"background_events"`
}

// NewEntry wraps a freshly built feed.
func NewEntry(feed domain.Feed, fingerprint string, cachedAt time.Time) Entry {
	e := Entry{
		Version:     EntryVersion,
		UserID:      feed.UserID,
		Fingerprint: fingerprint,
		LastUpdated: feed.LastUpdated,
		CachedAt:    cachedAt.UTC(),
		Tasks:       feed.Tasks,
		Background:  feed.Background,
	}
	if e.Tasks == nil {
		e.Tasks = []domain.CalendarEvent{}
	}
	if e.Background == nil {
		e.Background = []domain.BackgroundEvent{}
	}
	return e
}

// Feed returns the feed stored in the entry.
func (e Entry) Feed() domain.Feed {
	return domain.Feed{
		UserID:      e.UserID,
		LastUpdated: e.LastUpdated,
		Tasks:       e.Tasks,
		Background:  e.Background,
	}
}

// Encode serializes the entry.
func (e Entry) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEntry parses persisted bytes. Any failure wraps ErrMalformedEntry.
func DecodeEntry(data []byte) (Entry, error) {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	if w.Version != EntryVersion {
		return Entry{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedEntry, w.Version)
	}
	if w.Tasks == nil || w.Background == nil {
		return Entry{}, fmt.Errorf("%w: missing event lists", ErrMalformedEntry)
	}
	return Entry{
		Version:     w.Version,
		UserID:      w.UserID,
		Fingerprint: w.Fingerprint,
		LastUpdated: w.LastUpdated,
		CachedAt:    w.CachedAt,
		Tasks:       *w.Tasks,
		Background:  *w.Background,
	}, nil
}

// Key returns the cache key of a user.
func Key(userID uuid.UUID) string {
	return userID.String()
}
