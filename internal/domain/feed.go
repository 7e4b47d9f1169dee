package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Layouts used to render event bounds. Timestamps are wall-clock times in the
// feed's configured location and carry no offset.
const (
	TimestampLayout = "2006-01-02T15:04:05"
	DateLayout      = "2006-01-02"
)

// RenderingBackground marks an event as an availability overlay rather than
// a task.
const RenderingBackground = "background"

// BackgroundKind names the availability state a background event represents.
type BackgroundKind string

// Background kinds.
const (
	KindBusy     BackgroundKind = "busy"
	KindPersonal BackgroundKind = "personal"
	KindVacation BackgroundKind = "vacation"
	KindHoliday  BackgroundKind = "holiday"
)

// CalendarEvent is a task rendered on the calendar.
type CalendarEvent struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Status    string `json:"status"`
	ClassName string `json:"className"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
}

// BackgroundEvent is an availability window drawn behind the tasks.
type BackgroundEvent struct {
	Start           string         `json:"start"`
	End             string         `json:"end"`
	Rendering       string         `json:"rendering"`
	BackgroundColor string         `json:"backgroundColor"`
	UserID          string         `json:"user_id"`
	Kind            BackgroundKind `json:"kind"`
	AllDay          bool           `json:"allDay,omitempty"`
	Title           string         `json:"title,omitempty"`
}

// Feed is everything the calendar shows for one user over one range.
type Feed struct {
	UserID      uuid.UUID
	LastUpdated string
	Tasks       []CalendarEvent
	Background  []BackgroundEvent
}

// FeedItem is one element of the flat event list returned to clients. Exactly
// one of Task and Background is set.
type FeedItem struct {
	Task       *CalendarEvent
	Background *BackgroundEvent
}

// MarshalJSON encodes whichever event the item holds.
func (i FeedItem) MarshalJSON() ([]byte, error) {
	if i.Task != nil {
		return json.Marshal(i.Task)
	}
	if i.Background != nil {
		return json.Marshal(i.Background)
	}
	return []byte("null"), nil
}

// Items returns the task events followed by the background events.
func (f Feed) Items() []FeedItem {
	items := make([]FeedItem, 0, len(f.Tasks)+len(f.Background))
	for i := range f.Tasks {
		items = append(items, FeedItem{Task: &f.Tasks[i]})
	}
	for i := range f.Background {
		items = append(items, FeedItem{Background: &f.Background[i]})
	}
	return items
}

// Flatten concatenates the items of each feed in order.
func Flatten(feeds []Feed) []FeedItem {
	var n int
	for _, f := range feeds {
		n += len(f.Tasks) + len(f.Background)
	}
	items := make([]FeedItem, 0, n)
	for _, f := range feeds {
		items = append(items, f.Items()...)
	}
	return items
}
