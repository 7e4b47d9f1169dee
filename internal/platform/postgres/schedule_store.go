package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/platform/logger"
	"github.com/phrazzld/taskcal/internal/store"
)

// PostgresScheduleStore implements the store.ScheduleStore interface
// using a PostgreSQL database as the storage backend.
type PostgresScheduleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresScheduleStore creates a new PostgreSQL implementation of the ScheduleStore interface.
func NewPostgresScheduleStore(db store.DBTX, logger *slog.Logger) *PostgresScheduleStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresScheduleStore{
		db:     db,
		logger: logger.With(slog.String("component", "schedule_store")),
	}
}

// Ensure PostgresScheduleStore implements store.ScheduleStore interface
var _ store.ScheduleStore = (*PostgresScheduleStore)(nil)

// WithTx implements store.ScheduleStore.WithTx
func (s *PostgresScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore {
	return &PostgresScheduleStore{db: tx, logger: s.logger}
}

// GetByUserID implements store.ScheduleStore.GetByUserID
func (s *PostgresScheduleStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSchedule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// TIME columns are read as text so every driver hands back the same shape.
	query := `
		SELECT id, user_id, work_hours_start::text, work_hours_end::text,
			personal_hours_start::text, personal_hours_end::text, created_at, updated_at
		FROM user_schedules
		WHERE user_id = $1
	`

	var (
		sch                        domain.UserSchedule
		personalStart, personalEnd sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&sch.ID,
		&sch.UserID,
		&sch.WorkStart,
		&sch.WorkEnd,
		&personalStart,
		&personalEnd,
		&sch.CreatedAt,
		&sch.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("schedule not found", slog.String("user_id", userID.String()))
			return nil, store.ErrScheduleNotFound
		}
		log.Error("failed to get schedule",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	if sch.PersonalStart, err = optionalTimeOfDay(personalStart); err != nil {
		return nil, err
	}
	if sch.PersonalEnd, err = optionalTimeOfDay(personalEnd); err != nil {
		return nil, err
	}

	return &sch, nil
}

// Upsert implements store.ScheduleStore.Upsert
func (s *PostgresScheduleStore) Upsert(ctx context.Context, sch *domain.UserSchedule) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sch.Validate(); err != nil {
		log.Warn("schedule validation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", sch.UserID.String()))
		return err
	}
	if sch.ID == uuid.Nil {
		sch.ID = uuid.New()
	}
	now := time.Now().UTC()
	if sch.CreatedAt.IsZero() {
		sch.CreatedAt = now
	}
	sch.UpdatedAt = now

	query := `
		INSERT INTO user_schedules (id, user_id, work_hours_start, work_hours_end,
			personal_hours_start, personal_hours_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			work_hours_start = EXCLUDED.work_hours_start,
			work_hours_end = EXCLUDED.work_hours_end,
			personal_hours_start = EXCLUDED.personal_hours_start,
			personal_hours_end = EXCLUDED.personal_hours_end,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		sch.ID,
		sch.UserID,
		sch.WorkStart,
		sch.WorkEnd,
		sch.PersonalStart,
		sch.PersonalEnd,
		sch.CreatedAt,
		sch.UpdatedAt,
	).Scan(&sch.ID, &sch.CreatedAt)
	if err != nil {
		log.Error("failed to upsert schedule",
			slog.String("error", err.Error()),
			slog.String("user_id", sch.UserID.String()))
		return MapError(err)
	}

	log.Debug("schedule saved", slog.String("user_id", sch.UserID.String()))
	return nil
}

func optionalTimeOfDay(v sql.NullString) (*domain.TimeOfDay, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := domain.ParseTimeOfDay(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
