// Package availability turns a user's schedule, vacations and department
// holidays into the background events drawn behind their tasks.
//
// Output is deterministic: identical inputs always produce identical event
// sequences, which the feed cache relies on.
package availability

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/teambition/rrule-go"
)

// ErrEmptyRange is returned when a range has no calendar days.
var ErrEmptyRange = errors.New("range contains no days")

// Projector computes background events with a fixed palette.
type Projector struct {
	palette Palette
}

// NewProjector creates a Projector using the given palette.
func NewProjector(palette Palette) *Projector {
	return &Projector{palette: palette}
}

// NewDefaultProjector creates a Projector using DefaultPalette.
func NewDefaultProjector() *Projector {
	return NewProjector(DefaultPalette())
}

// Project returns the availability of one user over r.
//
// For each day of the range it emits, in this order, a busy window before
// work starts, the personal window and a busy window after work ends. A nil
// schedule contributes no daily windows. Every vacation intersecting the
// range is then appended twice: once as an all-day span ending the morning
// after its last day and once as a timed span from 00:00:00 of its first day
// to 23:59:59 of its last day.
func (p *Projector) Project(
	userID uuid.UUID,
	schedule *domain.UserSchedule,
	vacations []domain.Vacation,
	r domain.DateRange,
) ([]domain.BackgroundEvent, error) {
	var events []domain.BackgroundEvent
	uid := userID.String()

	if schedule != nil {
		days, err := Days(r)
		if err != nil {
			return nil, err
		}
		events = make([]domain.BackgroundEvent, 0, len(days)*3+len(vacations)*2)
		for _, day := range days {
			events = append(events, p.daily(uid, schedule, day)...)
		}
	}

	first, last := domain.DateOf(r.FirstDay()), domain.DateOf(r.LastDay())
	for _, v := range sortedVacations(vacations) {
		if v.DateEnd.Before(first) || v.DateStart.After(last) {
			continue
		}
		events = append(events, p.vacation(uid, v)...)
	}

	return events, nil
}

// ProjectHolidays returns one holiday event per holiday overlapping r, in
// start order, rendered in the range's location.
func (p *Projector) ProjectHolidays(userID uuid.UUID, holidays []domain.Holiday, r domain.DateRange) []domain.BackgroundEvent {
	sorted := slices.Clone(holidays)
	slices.SortStableFunc(sorted, func(a, b domain.Holiday) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	loc := r.Location()
	var events []domain.BackgroundEvent
	for _, h := range sorted {
		if h.End.Before(r.Start) || h.Start.After(r.End) {
			continue
		}
		events = append(events, domain.BackgroundEvent{
			Start:           h.Start.In(loc).Format(domain.TimestampLayout),
			End:             h.End.In(loc).Format(domain.TimestampLayout),
			Rendering:       domain.RenderingBackground,
			BackgroundColor: p.palette.Holiday,
			UserID:          userID.String(),
			Kind:            domain.KindHoliday,
			Title:           h.Name,
		})
	}
	return events
}

// Days enumerates the calendar dates touched by r as midnight UTC. Dates
// are stepped in UTC so DST changes in r's location never skip or repeat a
// day.
func Days(r domain.DateRange) ([]time.Time, error) {
	first, last := domain.DateOf(r.FirstDay()), domain.DateOf(r.LastDay())
	if last.Before(first) {
		return nil, ErrEmptyRange
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: first,
		Until:   last,
	})
	if err != nil {
		return nil, fmt.Errorf("build daily rule: %w", err)
	}
	return rule.All(), nil
}

func (p *Projector) daily(uid string, s *domain.UserSchedule, day time.Time) []domain.BackgroundEvent {
	events := make([]domain.BackgroundEvent, 0, 3)

	if s.WorkStart > domain.Midnight {
		events = append(events, p.window(uid, domain.KindBusy, p.palette.Busy, day, domain.Midnight, s.WorkStart))
	}
	if s.HasPersonalHours() {
		// Reversed or empty personal windows are passed through unchanged.
		events = append(events, p.window(uid, domain.KindPersonal, p.palette.Personal, day, *s.PersonalStart, *s.PersonalEnd))
	}
	if s.WorkEnd < domain.EndOfDay {
		events = append(events, p.window(uid, domain.KindBusy, p.palette.Busy, day, s.WorkEnd, domain.EndOfDay))
	}

	return events
}

func (p *Projector) window(uid string, kind domain.BackgroundKind, color string, day time.Time, from, to domain.TimeOfDay) domain.BackgroundEvent {
	date := day.Format(domain.DateLayout)
	return domain.BackgroundEvent{
		Start:           date + "T" + from.String(),
		End:             date + "T" + to.String(),
		Rendering:       domain.RenderingBackground,
		BackgroundColor: color,
		UserID:          uid,
		Kind:            kind,
	}
}

func (p *Projector) vacation(uid string, v domain.Vacation) []domain.BackgroundEvent {
	return []domain.BackgroundEvent{
		{
			Start:           v.DateStart.Format(domain.DateLayout),
			End:             v.DateEnd.AddDate(0, 0, 1).Format(domain.DateLayout),
			Rendering:       domain.RenderingBackground,
			BackgroundColor: p.palette.Vacation,
			UserID:          uid,
			Kind:            domain.KindVacation,
			AllDay:          true,
		},
		{
			Start:           v.DateStart.Format(domain.DateLayout) + "T" + domain.Midnight.String(),
			End:             v.DateEnd.Format(domain.DateLayout) + "T" + domain.EndOfDay.String(),
			Rendering:       domain.RenderingBackground,
			BackgroundColor: p.palette.Vacation,
			UserID:          uid,
			Kind:            domain.KindVacation,
		},
	}
}

func sortedVacations(vacations []domain.Vacation) []domain.Vacation {
	sorted := slices.Clone(vacations)
	slices.SortStableFunc(sorted, func(a, b domain.Vacation) int {
		if c := a.DateStart.Compare(b.DateStart); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return sorted
}
