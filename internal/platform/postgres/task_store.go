package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/platform/logger"
	"github.com/phrazzld/taskcal/internal/store"
)

// managedTaskColumns selects a task joined with its status and manager in the
// order scanManagedTask expects.
const managedTaskColumns = `
	t.id, t.title, t.deadline, COALESCE(st.name, ''),
	u.id, u.first_name, u.last_name, t.updated_at
`

const managedTaskJoins = `
	FROM tasks t
	JOIN users u ON u.id = t.managed_by_id
	LEFT JOIN statuses st ON st.id = t.status_id
`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
	loc    *time.Location
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// loc is used to compute default deadlines; nil means UTC.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger, loc *time.Location) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
		loc:    loc,
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger, loc: s.loc}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanManagedTask(row rowScanner) (domain.ManagedTask, error) {
	var t domain.ManagedTask
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Deadline,
		&t.StatusName,
		&t.ManagerID,
		&t.ManagerFirstName,
		&t.ManagerLastName,
		&t.UpdatedAt,
	)
	return t, err
}

// FindByManagerInRange implements store.TaskStore.FindByManagerInRange
func (s *PostgresTaskStore) FindByManagerInRange(
	ctx context.Context,
	managerID uuid.UUID,
	start, end time.Time,
) ([]domain.ManagedTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + managedTaskColumns + managedTaskJoins + `
		WHERE t.managed_by_id = $1 AND t.deadline BETWEEN $2 AND $3
		ORDER BY t.deadline, t.id
	`

	rows, err := s.db.QueryContext(ctx, query, managerID, start, end)
	if err != nil {
		log.Error("failed to query tasks in range",
			slog.String("error", err.Error()),
			slog.String("manager_id", managerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []domain.ManagedTask
	for rows.Next() {
		t, err := scanManagedTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()),
				slog.String("manager_id", managerID.String()))
			return nil, MapError(err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("tasks retrieved",
		slog.String("manager_id", managerID.String()),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// FindLatestUpdated implements store.TaskStore.FindLatestUpdated
func (s *PostgresTaskStore) FindLatestUpdated(ctx context.Context, managerID uuid.UUID) (*domain.ManagedTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + managedTaskColumns + managedTaskJoins + `
		WHERE t.managed_by_id = $1
		ORDER BY t.updated_at DESC, t.id DESC
		LIMIT 1
	`

	t, err := scanManagedTask(s.db.QueryRowContext(ctx, query, managerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get latest task",
			slog.String("error", err.Error()),
			slog.String("manager_id", managerID.String()))
		return nil, MapError(err)
	}
	return &t, nil
}

// Stats implements store.TaskStore.Stats
func (s *PostgresTaskStore) Stats(ctx context.Context, managerID uuid.UUID) (store.SourceStats, error) {
	query := `SELECT COUNT(*), MAX(updated_at) FROM tasks WHERE managed_by_id = $1`
	return scanStats(ctx, s.db, s.logger, "task", query, managerID)
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if task.Deadline.IsZero() {
		task.Deadline = domain.DefaultDeadline(time.Now(), s.loc)
	}
	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, head_task_id, title, assigned_by_id, managed_by_id,
			created_by_id, priority, deadline, status_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.HeadTaskID,
		task.Title,
		task.AssignedByID,
		task.ManagedByID,
		task.CreatedByID,
		task.Priority,
		task.Deadline,
		task.StatusID,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
		} else {
			log.Error("failed to create task",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
		}
		return MapError(err)
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	return nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}
	task.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET head_task_id = $2, title = $3, assigned_by_id = $4, managed_by_id = $5,
			created_by_id = $6, priority = $7, deadline = $8, status_id = $9, updated_at = $10
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.HeadTaskID,
		task.Title,
		task.AssignedByID,
		task.ManagedByID,
		task.CreatedByID,
		task.Priority,
		task.Deadline,
		task.StatusID,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// scanStats runs a COUNT/MAX(updated_at) query.
func scanStats(
	ctx context.Context,
	db store.DBTX,
	base *slog.Logger,
	entity string,
	query string,
	args ...any,
) (store.SourceStats, error) {
	var (
		stats  store.SourceStats
		latest sql.NullTime
	)
	if err := db.QueryRowContext(ctx, query, args...).Scan(&stats.Count, &latest); err != nil {
		logger.FromContextOrDefault(ctx, base).Error("failed to read source stats",
			slog.String("error", err.Error()),
			slog.String("entity", entity))
		return store.SourceStats{}, fmt.Errorf("%s stats: %w", entity, MapError(err))
	}
	if latest.Valid {
		stats.LastUpdated = latest.Time.UTC()
	}
	return stats, nil
}

// PostgresStatusStore implements the store.StatusStore interface.
type PostgresStatusStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatusStore creates a new PostgreSQL implementation of the StatusStore interface.
func NewPostgresStatusStore(db store.DBTX, logger *slog.Logger) *PostgresStatusStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStatusStore{db: db, logger: logger.With(slog.String("component", "status_store"))}
}

var _ store.StatusStore = (*PostgresStatusStore)(nil)

// WithTx implements store.StatusStore.WithTx
func (s *PostgresStatusStore) WithTx(tx *sql.Tx) store.StatusStore {
	return &PostgresStatusStore{db: tx, logger: s.logger}
}

// GetOrCreate implements store.StatusStore.GetOrCreate
func (s *PostgresStatusStore) GetOrCreate(ctx context.Context, name string) (*domain.Status, error) {
	if name == "" {
		return nil, domain.ErrEmptyStatus
	}

	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO statuses (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`
	var st domain.Status
	if err := s.db.QueryRowContext(ctx, query, uuid.New(), name).Scan(&st.ID, &st.Name); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get or create status",
			slog.String("error", err.Error()),
			slog.String("status", name))
		return nil, MapError(err)
	}
	return &st, nil
}

// Create implements store.StatusStore.Create
func (s *PostgresStatusStore) Create(ctx context.Context, status *domain.Status) error {
	if status.Name == "" {
		return domain.ErrEmptyStatus
	}
	if status.ID == uuid.Nil {
		status.ID = uuid.New()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO statuses (id, name) VALUES ($1, $2)`, status.ID, status.Name)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.NewStoreError("status", "create",
				fmt.Sprintf("name %q is taken", status.Name), store.ErrStatusExists)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create status",
			slog.String("error", err.Error()),
			slog.String("status", status.Name))
		return MapError(err)
	}
	return nil
}

// PostgresTagStore implements the store.TagStore interface.
type PostgresTagStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTagStore creates a new PostgreSQL implementation of the TagStore interface.
func NewPostgresTagStore(db store.DBTX, logger *slog.Logger) *PostgresTagStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTagStore{db: db, logger: logger.With(slog.String("component", "tag_store"))}
}

var _ store.TagStore = (*PostgresTagStore)(nil)

// WithTx implements store.TagStore.WithTx
func (s *PostgresTagStore) WithTx(tx *sql.Tx) store.TagStore {
	return &PostgresTagStore{db: tx, logger: s.logger}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create implements store.TagStore.Create
func (s *PostgresTagStore) Create(ctx context.Context, tag *domain.Tag, taskIDs ...uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (id, category, subcategory, for_what) VALUES ($1, $2, $3, $4)`,
		tag.ID, nullString(tag.Category), nullString(tag.Subcategory), nullString(tag.ForWhat))
	if err != nil {
		log.Error("failed to create tag", slog.String("error", err.Error()), slog.String("tag", tag.String()))
		return MapError(err)
	}

	for _, taskID := range taskIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			taskID, tag.ID)
		if err != nil {
			log.Error("failed to attach tag",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
			return MapError(err)
		}
	}
	return nil
}

// ListForTask implements store.TagStore.ListForTask
func (s *PostgresTagStore) ListForTask(ctx context.Context, taskID uuid.UUID) ([]domain.Tag, error) {
	query := `
		SELECT tg.id, COALESCE(tg.category, ''), COALESCE(tg.subcategory, ''), COALESCE(tg.for_what, '')
		FROM tags tg
		JOIN task_tags tt ON tt.tag_id = tg.id
		WHERE tt.task_id = $1
		ORDER BY tg.category, tg.subcategory, tg.for_what, tg.id
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tags []domain.Tag
	for rows.Next() {
		var tg domain.Tag
		if err := rows.Scan(&tg.ID, &tg.Category, &tg.Subcategory, &tg.ForWhat); err != nil {
			return nil, MapError(err)
		}
		tags = append(tags, tg)
	}
	return tags, MapError(rows.Err())
}
