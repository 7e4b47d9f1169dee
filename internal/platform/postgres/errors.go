package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskcal/internal/store"
)

// SQLSTATE codes of the constraint violations the stores translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeExclusionViolation  = "23P01"
)

// constraintErrors maps SQLSTATE codes to store sentinels.
var constraintErrors = map[string]error{
	codeUniqueViolation:     store.ErrDuplicate,
	codeForeignKeyViolation: store.ErrInvalidEntity,
	codeCheckViolation:      store.ErrInvalidEntity,
	codeNotNullViolation:    store.ErrInvalidEntity,
	codeExclusionViolation:  store.ErrConflict,
}

// MapError translates a database error into the matching store sentinel,
// keeping the original error text. Unrecognised errors are returned as is.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	pgErr, ok := asPgError(err)
	if !ok {
		return err
	}
	sentinel, ok := constraintErrors[pgErr.Code]
	if !ok {
		return err
	}
	if detail := pgErr.ConstraintName; detail != "" {
		return fmt.Errorf("%w (%s): %v", sentinel, detail, err)
	}
	if detail := pgErr.ColumnName; detail != "" {
		return fmt.Errorf("%w (%s): %v", sentinel, detail, err)
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	pgErr, ok := asPgError(err)
	return ok && pgErr.Code == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	pgErr, ok := asPgError(err)
	return ok && pgErr.Code == codeForeignKeyViolation
}

// CheckRowsAffected returns notFound when an UPDATE or DELETE touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("no result to check")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		if notFound == nil {
			return store.ErrNotFound
		}
		return notFound
	}
	return nil
}
