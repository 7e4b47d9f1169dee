package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// Entity-specific variants wrap it.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrConflict is returned when a write contradicts existing records.
	ErrConflict = errors.New("conflicting entity")

	// Entity-specific "not found" errors

	// ErrUserNotFound indicates that the requested user does not exist in the store.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTaskNotFound indicates that no matching task exists.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrScheduleNotFound indicates that the user has no schedule.
	ErrScheduleNotFound = fmt.Errorf("%w: schedule", ErrNotFound)

	// ErrVacationNotFound indicates that the requested vacation does not exist.
	ErrVacationNotFound = fmt.Errorf("%w: vacation", ErrNotFound)

	// ErrCacheEntryNotFound indicates that no cache entry is stored under a key.
	ErrCacheEntryNotFound = fmt.Errorf("%w: cache entry", ErrNotFound)

	// ErrStatusExists indicates a status with the same name already exists.
	ErrStatusExists = fmt.Errorf("%w: status", ErrDuplicate)

	// ErrVacationOverlap is returned when a vacation would overlap another
	// vacation of the same schedule.
	ErrVacationOverlap = fmt.Errorf("%w: vacation overlaps an existing vacation", ErrConflict)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "task", "vacation")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
