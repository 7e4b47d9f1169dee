package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some error"), false},
		{"ErrNotFound", ErrNotFound, true},
		{"ErrUserNotFound", ErrUserNotFound, true},
		{"wrapped ErrTaskNotFound", fmt.Errorf("latest task: %w", ErrTaskNotFound), true},
		{"ErrScheduleNotFound", ErrScheduleNotFound, true},
		{"ErrCacheEntryNotFound", ErrCacheEntryNotFound, true},
		{"store error wrapping not found", NewStoreError("vacation", "delete", "missing", ErrVacationNotFound), true},
		{"ErrVacationOverlap", ErrVacationOverlap, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"ErrDuplicate", ErrDuplicate, true},
		{"wrapped ErrStatusExists", fmt.Errorf("create status: %w", ErrStatusExists), true},
		{"ErrVacationOverlap", ErrVacationOverlap, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateError(tt.err); got != tt.expected {
				t.Errorf("IsDuplicateError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestVacationOverlapIsConflict(t *testing.T) {
	if !errors.Is(ErrVacationOverlap, ErrConflict) {
		t.Error("ErrVacationOverlap should wrap ErrConflict")
	}
}

func TestStoreError(t *testing.T) {
	originalErr := errors.New("database connection failed")
	storeErr := NewStoreError("task", "create", "database error", originalErr)

	expected := "create operation on task failed: database error: database connection failed"
	if got := storeErr.Error(); got != expected {
		t.Errorf("StoreError.Error() = %v, want %v", got, expected)
	}

	if !errors.Is(storeErr, originalErr) {
		t.Errorf("errors.Is() not recognizing the wrapped error")
	}

	bare := NewStoreError("task", "update", "no rows", nil)
	if got := bare.Error(); got != "update operation on task failed: no rows" {
		t.Errorf("StoreError.Error() without cause = %v", got)
	}
}
