package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskcal/internal/platform/logger"
)

// DBTX is implemented by both *sql.DB and *sql.Tx, so stores work the same
// on a connection pool or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFn is the body of a transaction. Returning an error rolls it back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction runs fn in a transaction on db. The transaction commits
// when fn returns nil; an error or a panic rolls it back, and a panic is
// re-raised afterwards.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) (err error) {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		p := recover()
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("transaction rollback failed",
				slog.String("rollback_error", rbErr.Error()),
				slog.Any("panic", p))
			if err != nil {
				err = fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, err)
			}
		}
		if p != nil {
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		log.Debug("rolling back transaction", slog.String("error", err.Error()))
		return err
	}

	committed = true
	if err = tx.Commit(); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
