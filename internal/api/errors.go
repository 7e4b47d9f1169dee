package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/service"
	"github.com/phrazzld/taskcal/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing their text.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, service.ErrNoUsers),
		errors.Is(err, service.ErrTooManyUsers),
		errors.As(err, &verrs):
		return http.StatusBadRequest

	case errors.Is(err, store.ErrUserNotFound):
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		return "Invalid date range"
	case errors.Is(err, service.ErrNoUsers):
		return "At least one user is required"
	case errors.Is(err, service.ErrTooManyUsers):
		return "Too many users requested"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid user ID"
	case errors.As(err, &verrs):
		return SanitizeValidationError(verrs)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidFormat):
		return "Validation error"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError describes the first failed field of a validator
// error in client terms.
func SanitizeValidationError(verrs validator.ValidationErrors) string {
	if len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	// Slice elements report as Users[0].
	field, _, _ := strings.Cut(fe.Field(), "[")
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(field), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too few values"
	case "max":
		return "too many values"
	case "uuid":
		return "must be a UUID"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message matching err and logs
// the full error.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	respondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
