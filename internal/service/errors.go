package service

import (
	"errors"
	"fmt"
)

// Common service errors. The API layer maps them to HTTP status codes.
var (
	// ErrNoUsers indicates a feed request that names no users.
	// API layer should map this to HTTP 400 Bad Request.
	ErrNoUsers = errors.New("at least one user is required")

	// ErrTooManyUsers indicates a feed request naming more users than allowed.
	// API layer should map this to HTTP 400 Bad Request.
	ErrTooManyUsers = errors.New("too many users requested")
)

// ServiceError wraps an unexpected failure with the service and operation
// it happened in.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
	}
	return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError.
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{Service: service, Op: op, Err: err}
}
