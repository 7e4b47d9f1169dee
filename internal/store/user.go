package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
)

// UserStore defines the interface for employee profile persistence.
type UserStore interface {
	// Create saves a new user.
	// Returns validation errors from the domain User if data is invalid.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}

// DepartmentStore persists departments.
type DepartmentStore interface {
	Create(ctx context.Context, dept *domain.Department) error
	WithTx(tx *sql.Tx) DepartmentStore
}
