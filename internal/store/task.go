package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
)

// SourceStats summarises a set of source records for fingerprinting.
// LastUpdated is zero when Count is zero.
type SourceStats struct {
	Count       int
	LastUpdated time.Time
}

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// FindByManagerInRange returns the tasks managed by managerID whose
	// deadline lies in [start, end], both bounds inclusive, ordered by
	// deadline then ID.
	FindByManagerInRange(ctx context.Context, managerID uuid.UUID, start, end time.Time) ([]domain.ManagedTask, error)

	// FindLatestUpdated returns the most recently updated task managed by
	// managerID. Returns ErrTaskNotFound when the user manages no tasks.
	FindLatestUpdated(ctx context.Context, managerID uuid.UUID) (*domain.ManagedTask, error)

	// Stats returns how many tasks managerID manages and the latest
	// updated_at among them.
	Stats(ctx context.Context, managerID uuid.UUID) (SourceStats, error)

	// Create saves a new task. A zero deadline is replaced by the default.
	Create(ctx context.Context, task *domain.Task) error

	// Update modifies an existing task and bumps its updated_at.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task. Returns ErrTaskNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	WithTx(tx *sql.Tx) TaskStore
}

// StatusStore persists task statuses.
type StatusStore interface {
	// GetOrCreate returns the status with the given name, creating it when
	// missing.
	GetOrCreate(ctx context.Context, name string) (*domain.Status, error)
	// Create saves a new status. Returns ErrStatusExists if the name is taken.
	Create(ctx context.Context, status *domain.Status) error
	WithTx(tx *sql.Tx) StatusStore
}

// TagStore persists task tags.
type TagStore interface {
	// Create saves a tag and attaches it to the given tasks.
	Create(ctx context.Context, tag *domain.Tag, taskIDs ...uuid.UUID) error
	// ListForTask returns the tags attached to a task.
	ListForTask(ctx context.Context, taskID uuid.UUID) ([]domain.Tag, error)
	WithTx(tx *sql.Tx) TagStore
}
