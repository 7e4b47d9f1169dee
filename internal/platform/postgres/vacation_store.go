package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/platform/logger"
	"github.com/phrazzld/taskcal/internal/store"
)

// PostgresVacationStore implements the store.VacationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresVacationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresVacationStore creates a new PostgreSQL implementation of the VacationStore interface.
func NewPostgresVacationStore(db store.DBTX, logger *slog.Logger) *PostgresVacationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresVacationStore{
		db:     db,
		logger: logger.With(slog.String("component", "vacation_store")),
	}
}

// Ensure PostgresVacationStore implements store.VacationStore interface
var _ store.VacationStore = (*PostgresVacationStore)(nil)

// WithTx implements store.VacationStore.WithTx
func (s *PostgresVacationStore) WithTx(tx *sql.Tx) store.VacationStore {
	return &PostgresVacationStore{db: tx, logger: s.logger}
}

// FindOverlapping implements store.VacationStore.FindOverlapping
func (s *PostgresVacationStore) FindOverlapping(
	ctx context.Context,
	userID uuid.UUID,
	from, to time.Time,
) ([]domain.Vacation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT v.id, v.schedule_id, v.date_start, v.date_end, v.tag, v.created_at, v.updated_at
		FROM vacations v
		JOIN user_schedules us ON us.id = v.schedule_id
		WHERE us.user_id = $1 AND v.date_end >= $2::date AND v.date_start <= $3::date
		ORDER BY v.date_start, v.id
	`
	rows, err := s.db.QueryContext(ctx, query, userID, dateParam(from), dateParam(to))
	if err != nil {
		log.Error("failed to query vacations",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var vacations []domain.Vacation
	for rows.Next() {
		var v domain.Vacation
		if err := rows.Scan(&v.ID, &v.ScheduleID, &v.DateStart, &v.DateEnd, &v.Tag, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		v.DateStart = domain.DateOf(v.DateStart)
		v.DateEnd = domain.DateOf(v.DateEnd)
		vacations = append(vacations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return vacations, nil
}

// Stats implements store.VacationStore.Stats
func (s *PostgresVacationStore) Stats(ctx context.Context, userID uuid.UUID) (store.SourceStats, error) {
	query := `
		SELECT COUNT(*), MAX(v.updated_at)
		FROM vacations v
		JOIN user_schedules us ON us.id = v.schedule_id
		WHERE us.user_id = $1
	`
	return scanStats(ctx, s.db, s.logger, "vacation", query, userID)
}

// Create implements store.VacationStore.Create
func (s *PostgresVacationStore) Create(ctx context.Context, v *domain.Vacation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := v.Validate(); err != nil {
		log.Warn("vacation validation failed",
			slog.String("error", err.Error()),
			slog.String("vacation_id", v.ID.String()))
		return err
	}

	// The insert only happens when no vacation of the same schedule shares a day.
	query := `
		INSERT INTO vacations (id, schedule_id, date_start, date_end, tag, created_at, updated_at)
		SELECT $1::uuid, $2::uuid, $3::date, $4::date, $5::text, $6::timestamptz, $7::timestamptz
		WHERE NOT EXISTS (
			SELECT 1 FROM vacations
			WHERE schedule_id = $2 AND date_start <= $4::date AND date_end >= $3::date
		)
	`
	result, err := s.db.ExecContext(ctx, query,
		v.ID,
		v.ScheduleID,
		dateParam(v.DateStart),
		dateParam(v.DateEnd),
		v.Tag,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create vacation",
			slog.String("error", err.Error()),
			slog.String("vacation_id", v.ID.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrVacationOverlap); err != nil {
		log.Warn("vacation overlaps an existing one",
			slog.String("schedule_id", v.ScheduleID.String()),
			slog.String("date_start", dateParam(v.DateStart)),
			slog.String("date_end", dateParam(v.DateEnd)))
		return err
	}
	return nil
}

// Delete implements store.VacationStore.Delete
func (s *PostgresVacationStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM vacations WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrVacationNotFound)
}

// dateParam renders the calendar date of t for a DATE parameter.
func dateParam(t time.Time) string {
	return t.Format(domain.DateLayout)
}
