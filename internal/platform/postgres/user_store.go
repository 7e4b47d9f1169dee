package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/platform/logger"
	"github.com/phrazzld/taskcal/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{db: tx, logger: s.logger}
}

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO users (id, first_name, last_name, patronymic, department_id,
			job_title, telegram_username, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Patronymic,
		user.DepartmentID,
		user.JobTitle,
		user.TelegramUsername,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}

	log.Debug("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, first_name, last_name, patronymic, department_id,
			job_title, telegram_username, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u domain.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Patronymic,
		&u.DepartmentID,
		&u.JobTitle,
		&u.TelegramUsername,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.String("user_id", id.String()))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by ID",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, MapError(err)
	}

	return &u, nil
}

// PostgresDepartmentStore implements the store.DepartmentStore interface.
type PostgresDepartmentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDepartmentStore creates a new PostgreSQL implementation of the DepartmentStore interface.
func NewPostgresDepartmentStore(db store.DBTX, logger *slog.Logger) *PostgresDepartmentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDepartmentStore{
		db:     db,
		logger: logger.With(slog.String("component", "department_store")),
	}
}

var _ store.DepartmentStore = (*PostgresDepartmentStore)(nil)

// WithTx implements store.DepartmentStore.WithTx
func (s *PostgresDepartmentStore) WithTx(tx *sql.Tx) store.DepartmentStore {
	return &PostgresDepartmentStore{db: tx, logger: s.logger}
}

// Create implements store.DepartmentStore.Create
func (s *PostgresDepartmentStore) Create(ctx context.Context, dept *domain.Department) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO departments (id, name, head_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, dept.ID, dept.Name, dept.HeadUserID, dept.CreatedAt, dept.UpdatedAt)
	if err != nil {
		log.Error("failed to create department",
			slog.String("error", err.Error()),
			slog.String("department_id", dept.ID.String()))
		return MapError(err)
	}
	return nil
}
