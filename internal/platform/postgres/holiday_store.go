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

// PostgresHolidayStore implements the store.HolidayStore interface
// using a PostgreSQL database as the storage backend.
type PostgresHolidayStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresHolidayStore creates a new PostgreSQL implementation of the HolidayStore interface.
func NewPostgresHolidayStore(db store.DBTX, logger *slog.Logger) *PostgresHolidayStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresHolidayStore{
		db:     db,
		logger: logger.With(slog.String("component", "holiday_store")),
	}
}

var _ store.HolidayStore = (*PostgresHolidayStore)(nil)

// WithTx implements store.HolidayStore.WithTx
func (s *PostgresHolidayStore) WithTx(tx *sql.Tx) store.HolidayStore {
	return &PostgresHolidayStore{db: tx, logger: s.logger}
}

// FindForUser implements store.HolidayStore.FindForUser
func (s *PostgresHolidayStore) FindForUser(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) ([]domain.Holiday, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT h.id, h.name, h.date_time_start, h.date_time_end, h.created_at, h.updated_at, u.department_id
		FROM holidays h
		JOIN holiday_departments hd ON hd.holiday_id = h.id
		JOIN users u ON u.department_id = hd.department_id
		WHERE u.id = $1 AND h.date_time_end >= $2 AND h.date_time_start <= $3
		ORDER BY h.date_time_start, h.id
	`
	rows, err := s.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		log.Error("failed to query holidays",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var holidays []domain.Holiday
	for rows.Next() {
		var (
			h    domain.Holiday
			dept uuid.UUID
		)
		if err := rows.Scan(&h.ID, &h.Name, &h.Start, &h.End, &h.CreatedAt, &h.UpdatedAt, &dept); err != nil {
			return nil, MapError(err)
		}
		h.DepartmentIDs = []uuid.UUID{dept}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return holidays, nil
}

// Stats implements store.HolidayStore.Stats
func (s *PostgresHolidayStore) Stats(ctx context.Context, userID uuid.UUID) (store.SourceStats, error) {
	query := `
		SELECT COUNT(*), MAX(h.updated_at)
		FROM holidays h
		JOIN holiday_departments hd ON hd.holiday_id = h.id
		JOIN users u ON u.department_id = hd.department_id
		WHERE u.id = $1
	`
	return scanStats(ctx, s.db, s.logger, "holiday", query, userID)
}

// Create implements store.HolidayStore.Create
func (s *PostgresHolidayStore) Create(ctx context.Context, h *domain.Holiday) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := h.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, name, date_time_start, date_time_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, h.ID, h.Name, h.Start, h.End, h.CreatedAt, h.UpdatedAt)
	if err != nil {
		log.Error("failed to create holiday",
			slog.String("error", err.Error()),
			slog.String("holiday_id", h.ID.String()))
		return MapError(err)
	}

	for _, dept := range h.DepartmentIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO holiday_departments (holiday_id, department_id) VALUES ($1, $2)`,
			h.ID, dept)
		if err != nil {
			log.Error("failed to link holiday to department",
				slog.String("error", err.Error()),
				slog.String("holiday_id", h.ID.String()),
				slog.String("department_id", dept.String()))
			return MapError(err)
		}
	}
	return nil
}
