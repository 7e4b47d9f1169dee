package feed_test

import (
	"bytes"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteICS(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.New()
	feeds := []domain.Feed{{
		UserID: userID,
		Tasks: []domain.CalendarEvent{{
			ID:        taskID.String(),
			Title:     "Report (Ivan Petrov)",
			Start:     "2024-06-10T14:00:00",
			End:       "2024-06-10T14:00:00",
			Status:    "new",
			ClassName: "status-new",
			UserID:    userID.String(),
			UserName:  "Ivan Petrov",
		}},
		Background: []domain.BackgroundEvent{
			{Start: "2024-06-10T00:00:00", End: "2024-06-10T09:00:00", Kind: domain.KindBusy, UserID: userID.String()},
			{Start: "2024-07-01", End: "2024-07-04", Kind: domain.KindVacation, AllDay: true, UserID: userID.String()},
			{Start: "2024-07-01T00:00:00", End: "2024-07-03T23:59:59", Kind: domain.KindVacation, UserID: userID.String()},
			{Start: "2024-01-01T00:00:00", End: "2024-01-01T23:59:59", Kind: domain.KindHoliday, Title: "New Year", UserID: userID.String()},
		},
	}}

	var buf bytes.Buffer
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, feed.WriteICS(&buf, feeds, time.UTC, now))

	cal, err := ics.ParseCalendar(&buf)
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 3, "task, all-day vacation and holiday")

	task := events[0]
	assert.Equal(t, taskID.String()+"@taskcal", task.Id())
	start, err := task.GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Report (Ivan Petrov)", task.GetProperty(ics.ComponentPropertySummary).Value)

	vacation := events[1]
	day, err := vacation.GetAllDayStartAt()
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01", day.Format(domain.DateLayout))

	holiday := events[2]
	assert.Equal(t, "New Year", holiday.GetProperty(ics.ComponentPropertySummary).Value)
}

func TestCalendar_InvalidTimestamp(t *testing.T) {
	_, err := feed.Calendar([]domain.Feed{{
		Tasks: []domain.CalendarEvent{{ID: "x", Start: "not-a-time"}},
	}}, time.UTC, time.Now())
	assert.Error(t, err)
}
