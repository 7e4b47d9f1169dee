package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
)

// ScheduleStore defines the interface for user schedule persistence.
type ScheduleStore interface {
	// GetByUserID returns the schedule of a user.
	// Returns ErrScheduleNotFound when the user has none.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSchedule, error)

	// Upsert creates the user's schedule or replaces its hours, bumping
	// updated_at. The stored ID is written back to schedule.ID.
	Upsert(ctx context.Context, schedule *domain.UserSchedule) error

	WithTx(tx *sql.Tx) ScheduleStore
}

// VacationStore defines the interface for vacation persistence.
type VacationStore interface {
	// FindOverlapping returns the vacations of userID's schedule whose day
	// span intersects the dates [from, to], ordered by start date then ID.
	FindOverlapping(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Vacation, error)

	// Stats counts the vacations of userID's schedule and returns their
	// latest updated_at.
	Stats(ctx context.Context, userID uuid.UUID) (SourceStats, error)

	// Create saves a vacation.
	// Returns domain.ErrValidation when it ends before it starts and
	// ErrVacationOverlap when it overlaps another vacation of the schedule.
	Create(ctx context.Context, vacation *domain.Vacation) error

	// Delete removes a vacation. Returns ErrVacationNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	WithTx(tx *sql.Tx) VacationStore
}

// HolidayStore defines the interface for department holiday persistence.
type HolidayStore interface {
	// FindForUser returns the holidays of userID's department overlapping
	// [start, end], ordered by start then ID.
	FindForUser(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Holiday, error)

	// Stats counts the holidays of userID's department and returns their
	// latest updated_at.
	Stats(ctx context.Context, userID uuid.UUID) (SourceStats, error)

	// Create saves a holiday and links it to its departments.
	Create(ctx context.Context, holiday *domain.Holiday) error

	WithTx(tx *sql.Tx) HolidayStore
}
