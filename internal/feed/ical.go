package feed

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/phrazzld/taskcal/internal/domain"
)

// ProductID identifies calendars produced by this service.
const ProductID = "-//taskcal//Task Calendar Feed//EN"

// CalendarName is the display name of exported calendars.
const CalendarName = "Tasks"

// Calendar renders feeds as an iCalendar document. Every task becomes an
// event at its deadline; vacations become all-day events and holidays timed
// events. Daily busy and personal windows are not exported.
func Calendar(feeds []domain.Feed, loc *time.Location, now time.Time) (*ics.Calendar, error) {
	if loc == nil {
		loc = time.UTC
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName(CalendarName)
	cal.SetXWRTimezone(loc.String())

	for _, f := range feeds {
		for _, t := range f.Tasks {
			at, err := time.ParseInLocation(domain.TimestampLayout, t.Start, loc)
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", t.ID, err)
			}
			ev := cal.AddEvent(t.ID + "@taskcal")
			ev.SetDtStampTime(now)
			ev.SetStartAt(at)
			ev.SetEndAt(at)
			ev.SetSummary(t.Title)
			ev.SetDescription(t.UserName)
			if t.Status != "" {
				ev.SetProperty(ics.ComponentPropertyCategories, t.Status)
			}
		}

		for _, b := range f.Background {
			if err := addBackground(cal, b, loc, now); err != nil {
				return nil, err
			}
		}
	}

	return cal, nil
}

// WriteICS serializes the calendar of feeds to w.
func WriteICS(w io.Writer, feeds []domain.Feed, loc *time.Location, now time.Time) error {
	cal, err := Calendar(feeds, loc, now)
	if err != nil {
		return err
	}
	return cal.SerializeTo(w)
}

func addBackground(cal *ics.Calendar, b domain.BackgroundEvent, loc *time.Location, now time.Time) error {
	uid := fmt.Sprintf("%s-%s-%s@taskcal", b.Kind, b.UserID, b.Start)

	switch {
	case b.Kind == domain.KindVacation && b.AllDay:
		start, err := time.ParseInLocation(domain.DateLayout, b.Start, loc)
		if err != nil {
			return fmt.Errorf("vacation start: %w", err)
		}
		end, err := time.ParseInLocation(domain.DateLayout, b.End, loc)
		if err != nil {
			return fmt.Errorf("vacation end: %w", err)
		}
		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(now)
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(end)
		ev.SetSummary("Vacation")
		ev.SetTimeTransparency(ics.TransparencyOpaque)

	case b.Kind == domain.KindHoliday:
		start, err := time.ParseInLocation(domain.TimestampLayout, b.Start, loc)
		if err != nil {
			return fmt.Errorf("holiday start: %w", err)
		}
		end, err := time.ParseInLocation(domain.TimestampLayout, b.End, loc)
		if err != nil {
			return fmt.Errorf("holiday end: %w", err)
		}
		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(now)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(b.Title)
		ev.SetTimeTransparency(ics.TransparencyOpaque)
	}
	return nil
}
