package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Schedule and vacation validation errors.
var (
	ErrEmptyScheduleUser  = errors.New("schedule user ID cannot be empty")
	ErrInvalidWorkHours   = fmt.Errorf("%w: work hours must start before they end", ErrValidation)
	ErrInvalidTimeOfDay   = fmt.Errorf("%w: time of day", ErrInvalidFormat)
	ErrInvalidVacation    = fmt.Errorf("%w: vacation must not end before it starts", ErrValidation)
	ErrEmptyVacationOwner = errors.New("vacation schedule ID cannot be empty")
	ErrInvalidHoliday     = fmt.Errorf("%w: holiday must not end before it starts", ErrValidation)
)

// TimeOfDay is a wall-clock time within a day, stored as seconds since
// midnight.
type TimeOfDay int32

const (
	// Midnight is 00:00:00.
	Midnight TimeOfDay = 0
	// EndOfDay is 23:59:59, the last instant the calendar renders for a day.
	EndOfDay TimeOfDay = 23*3600 + 59*60 + 59
)

// NewTimeOfDay builds a TimeOfDay from its components.
func NewTimeOfDay(hour, minute, second int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d:%02d", ErrInvalidTimeOfDay, hour, minute, second)
	}
	return TimeOfDay(hour*3600 + minute*60 + second), nil
}

// MustTimeOfDay is NewTimeOfDay for constant inputs.
func MustTimeOfDay(hour, minute, second int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute, second)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay accepts "15:04" and "15:04:05". Fractional seconds, as
// Postgres may render them, are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
}

// Clock returns the hour, minute and second.
func (t TimeOfDay) Clock() (hour, minute, second int) {
	s := int(t)
	return s / 3600, (s % 3600) / 60, s % 60
}

// String renders the time as HH:MM:SS.
func (t TimeOfDay) String() string {
	h, m, s := t.Clock()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// On returns the instant at this time of day on the calendar day of day,
// interpreted in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	h, m, s := t.Clock()
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, day.Location())
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer so the value can be bound to a TIME column.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner for TIME columns.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	case time.Time:
		*t = TimeOfDay(v.Hour()*3600 + v.Minute()*60 + v.Second())
		return nil
	case int64:
		*t = TimeOfDay(v)
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidTimeOfDay, src)
	}
}

// UserSchedule holds a user's recurring daily work and personal windows.
// A user has at most one schedule.
type UserSchedule struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	WorkStart     TimeOfDay  `json:"work_hours_start"`
	WorkEnd       TimeOfDay  `json:"work_hours_end"`
	PersonalStart *TimeOfDay `json:"personal_hours_start,omitempty"`
	PersonalEnd   *TimeOfDay `json:"personal_hours_end,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewUserSchedule creates a schedule without personal hours.
func NewUserSchedule(userID uuid.UUID, workStart, workEnd TimeOfDay) (*UserSchedule, error) {
	now := time.Now().UTC()
	s := &UserSchedule{
		ID:        uuid.New(),
		UserID:    userID,
		WorkStart: workStart,
		WorkEnd:   workEnd,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// HasPersonalHours reports whether both personal bounds are set.
func (s *UserSchedule) HasPersonalHours() bool {
	return s.PersonalStart != nil && s.PersonalEnd != nil
}

// Validate checks the work window. The personal window is not required to
// nest inside it.
func (s *UserSchedule) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptyScheduleUser
	}
	if s.WorkStart >= s.WorkEnd {
		return ErrInvalidWorkHours
	}
	return nil
}

// Vacation is an inclusive span of calendar days off. DateStart and DateEnd
// carry only a date; their clock is midnight UTC.
type Vacation struct {
	ID         uuid.UUID `json:"id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	DateStart  time.Time `json:"date_start"`
	DateEnd    time.Time `json:"date_end"`
	Tag        string    `json:"tag"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewVacation creates a vacation for the given schedule.
func NewVacation(scheduleID uuid.UUID, start, end time.Time, tag string) (*Vacation, error) {
	now := time.Now().UTC()
	v := &Vacation{
		ID:         uuid.New(),
		ScheduleID: scheduleID,
		DateStart:  DateOf(start),
		DateEnd:    DateOf(end),
		Tag:        strings.TrimSpace(tag),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks if the Vacation has valid data.
func (v *Vacation) Validate() error {
	if v.ScheduleID == uuid.Nil {
		return ErrEmptyVacationOwner
	}
	if v.DateEnd.Before(v.DateStart) {
		return ErrInvalidVacation
	}
	return nil
}

// Overlaps reports whether the two inclusive day spans share a day.
func (v *Vacation) Overlaps(other *Vacation) bool {
	return !v.DateStart.After(other.DateEnd) && !other.DateStart.After(v.DateEnd)
}

// Holiday is a company day off attached to one or more departments.
type Holiday struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Start         time.Time   `json:"date_time_start"`
	End           time.Time   `json:"date_time_end"`
	DepartmentIDs []uuid.UUID `json:"department_ids"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewHoliday creates a holiday for the given departments.
func NewHoliday(name string, start, end time.Time, departments ...uuid.UUID) (*Holiday, error) {
	now := time.Now().UTC()
	h := &Holiday{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(name),
		Start:         start,
		End:           end,
		DepartmentIDs: departments,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks if the Holiday has valid data.
func (h *Holiday) Validate() error {
	if h.Name == "" {
		return NewValidationError("name", "cannot be empty", nil)
	}
	if h.End.Before(h.Start) {
		return ErrInvalidHoliday
	}
	return nil
}

// DateOf truncates t to its calendar date, keeping the date as seen in t's
// own location and returning it at midnight UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
