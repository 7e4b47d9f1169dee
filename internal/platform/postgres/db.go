package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/phrazzld/taskcal/internal/config"
	"github.com/phrazzld/taskcal/internal/feed"
)

// DriverName is the database/sql driver used for Postgres.
const DriverName = "pgx"

// Open connects to the database described by cfg, applies the pool limits
// and verifies the connection with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open(DriverName, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connection established",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns))
	return db, nil
}

// Stores bundles every Postgres store over one connection.
type Stores struct {
	Users       *PostgresUserStore
	Departments *PostgresDepartmentStore
	Statuses    *PostgresStatusStore
	Tags        *PostgresTagStore
	Tasks       *PostgresTaskStore
	Schedules   *PostgresScheduleStore
	Vacations   *PostgresVacationStore
	Holidays    *PostgresHolidayStore
}

// NewStores creates all stores on db. loc is the location task default
// deadlines are computed in.
func NewStores(db *sql.DB, loc *time.Location, log *slog.Logger) Stores {
	return Stores{
		Users:       NewPostgresUserStore(db, log),
		Departments: NewPostgresDepartmentStore(db, log),
		Statuses:    NewPostgresStatusStore(db, log),
		Tags:        NewPostgresTagStore(db, log),
		Tasks:       NewPostgresTaskStore(db, log, loc),
		Schedules:   NewPostgresScheduleStore(db, log),
		Vacations:   NewPostgresVacationStore(db, log),
		Holidays:    NewPostgresHolidayStore(db, log),
	}
}

// FeedSources returns the stores a feed builder reads from.
func (s Stores) FeedSources() feed.Sources {
	return feed.Sources{
		Users:     s.Users,
		Tasks:     s.Tasks,
		Schedules: s.Schedules,
		Vacations: s.Vacations,
		Holidays:  s.Holidays,
	}
}
