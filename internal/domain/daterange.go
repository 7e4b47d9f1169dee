package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateRange is an inclusive span of instants requested by a calendar client.
// Start and End are expressed in the feed location.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Layouts accepted for bounds that carry an explicit offset.
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
}

// Layouts read in the feed location.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// NewDateRange builds a range from two instants, converting them to loc.
func NewDateRange(start, end time.Time, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("%w: start %s is after end %s",
			ErrInvalidRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return DateRange{Start: start.In(loc), End: end.In(loc)}, nil
}

// ParseDateRange parses the start and end query values of a feed request.
// A date-only start means the first instant of that day and a date-only end
// the last instant of that day. Bounds without an offset are read in loc.
func ParseDateRange(startRaw, endRaw string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := parseBound("start", startRaw, loc, false)
	if err != nil {
		return DateRange{}, err
	}
	end, err := parseBound("end", endRaw, loc, true)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(start, end, loc)
}

func parseBound(name, raw string, loc *time.Location, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", ErrInvalidRange, name)
	}
	// A "+" in an unescaped query string arrives as a space.
	if len(raw) > 19 && raw[19] == ' ' {
		raw = raw[:19] + "+" + raw[20:]
	}

	if d, err := time.Parse(DateLayout, raw); err == nil {
		if endOfDay {
			return dayStart(d.AddDate(0, 0, 1), loc).Add(-time.Nanosecond), nil
		}
		return dayStart(d, loc), nil
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse %s %q", ErrInvalidRange, name, raw)
}

// Location returns the location the range is expressed in.
func (r DateRange) Location() *time.Location {
	return r.Start.Location()
}

// FirstDay is the first instant of the calendar day containing Start.
func (r DateRange) FirstDay() time.Time {
	return startOfDay(r.Start)
}

// LastDay is the first instant of the calendar day containing End.
func (r DateRange) LastDay() time.Time {
	return startOfDay(r.End)
}

// Days is the number of calendar days the range touches.
func (r DateRange) Days() int {
	return int(DateOf(r.End).Sub(DateOf(r.Start))/(24*time.Hour)) + 1
}

// CheckMaxDays rejects ranges touching more than max days. A max of zero or
// less disables the check.
func (r DateRange) CheckMaxDays(max int) error {
	if max <= 0 {
		return nil
	}
	if n := r.Days(); n > max {
		return fmt.Errorf("%w: range spans %d days, at most %d allowed", ErrInvalidRange, n, max)
	}
	return nil
}

// Key identifies the range unambiguously.
func (r DateRange) Key() string {
	return r.Start.UTC().Format(time.RFC3339Nano) + "/" + r.End.UTC().Format(time.RFC3339Nano)
}

func (r DateRange) String() string {
	return r.Start.Format(time.RFC3339) + "/" + r.End.Format(time.RFC3339)
}

func startOfDay(t time.Time) time.Time {
	return dayStart(t, t.Location())
}

// dayStart returns the first instant in loc of the calendar date of d. When
// a DST change skips midnight the day starts at the end of the gap.
func dayStart(d time.Time, loc *time.Location) time.Time {
	t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	if t.Day() != d.Day() {
		_, end := t.ZoneBounds()
		return end
	}
	return t
}
