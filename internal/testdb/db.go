//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/taskcal/internal/platform/postgres"
)

var migrateOnce sync.Once

// GetTestDBWithT opens a connection to the test database and applies the
// embedded migrations once per test binary. The test is skipped when no
// database URL is configured.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	if ShouldSkipDatabaseTest() {
		t.Skip("no test database configured; set " + EnvTestDatabaseURL)
	}

	dbURL := GetTestDatabaseURL()
	db, err := sql.Open(postgres.DriverName, dbURL)
	if err != nil {
		t.Fatalf("failed to open test database %s: %v", maskDatabaseURL(dbURL), err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Fatalf("failed to ping test database %s: %v", maskDatabaseURL(dbURL), err)
	}

	var migrateErr error
	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(context.Background(), db, postgres.MigrateUp, slog.Default())
	})
	if migrateErr != nil {
		_ = db.Close()
		t.Fatalf("failed to apply migrations: %v", migrateErr)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// WithTx runs fn inside a transaction that is always rolled back, so tests
// can write freely and still run in parallel.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
