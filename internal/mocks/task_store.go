package mocks

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/store"
)

// MockTaskStore implements store.TaskStore over an in-memory list of
// managed tasks.
type MockTaskStore struct {
	FindFn func(ctx context.Context, managerID uuid.UUID, start, end time.Time) ([]domain.ManagedTask, error)

	FindErr  error
	StatsErr error

	mu        sync.Mutex
	tasks     map[uuid.UUID]domain.ManagedTask
	findCalls int
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates a store holding the given tasks.
func NewMockTaskStore(tasks ...domain.ManagedTask) *MockTaskStore {
	m := &MockTaskStore{tasks: make(map[uuid.UUID]domain.ManagedTask)}
	for _, t := range tasks {
		m.tasks[t.ID] = t
	}
	return m
}

// Add inserts or replaces a task.
func (m *MockTaskStore) Add(t domain.ManagedTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
}

// Remove deletes a task.
func (m *MockTaskStore) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
}

// FindCalls returns how many times FindByManagerInRange ran.
func (m *MockTaskStore) FindCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls
}

func (m *MockTaskStore) managedBy(managerID uuid.UUID) []domain.ManagedTask {
	var out []domain.ManagedTask
	for _, t := range m.tasks {
		if t.ManagerID == managerID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b domain.ManagedTask) int {
		if c := a.Deadline.Compare(b.Deadline); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// FindByManagerInRange implements store.TaskStore with inclusive bounds.
func (m *MockTaskStore) FindByManagerInRange(
	ctx context.Context,
	managerID uuid.UUID,
	start, end time.Time,
) ([]domain.ManagedTask, error) {
	m.mu.Lock()
	m.findCalls++
	m.mu.Unlock()

	if m.FindFn != nil {
		return m.FindFn(ctx, managerID, start, end)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	var out []domain.ManagedTask
	for _, t := range m.managedBy(managerID) {
		if !t.Deadline.Before(start) && !t.Deadline.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

// FindLatestUpdated implements store.TaskStore.
func (m *MockTaskStore) FindLatestUpdated(_ context.Context, managerID uuid.UUID) (*domain.ManagedTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.ManagedTask
	for _, t := range m.managedBy(managerID) {
		if latest == nil || t.UpdatedAt.After(latest.UpdatedAt) {
			t := t
			latest = &t
		}
	}
	if latest == nil {
		return nil, store.ErrTaskNotFound
	}
	return latest, nil
}

// Stats implements store.TaskStore.
func (m *MockTaskStore) Stats(_ context.Context, managerID uuid.UUID) (store.SourceStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatsErr != nil {
		return store.SourceStats{}, m.StatsErr
	}
	var s store.SourceStats
	for _, t := range m.managedBy(managerID) {
		s.Count++
		if t.UpdatedAt.After(s.LastUpdated) {
			s.LastUpdated = t.UpdatedAt
		}
	}
	return s, nil
}

// Create implements store.TaskStore. Only managed tasks are tracked, so the
// task is stored without manager names.
func (m *MockTaskStore) Create(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mt := domain.ManagedTask{
		ID:        task.ID,
		Title:     task.Title,
		Deadline:  task.Deadline,
		UpdatedAt: task.UpdatedAt,
	}
	if task.ManagedByID != nil {
		mt.ManagerID = *task.ManagedByID
	}
	m.tasks[task.ID] = mt
	return nil
}

// Update implements store.TaskStore.
func (m *MockTaskStore) Update(_ context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now().UTC()
	mt.Title = task.Title
	mt.Deadline = task.Deadline
	mt.UpdatedAt = task.UpdatedAt
	m.tasks[task.ID] = mt
	return nil
}

// Delete implements store.TaskStore.
func (m *MockTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

// WithTx implements store.TaskStore.
func (m *MockTaskStore) WithTx(*sql.Tx) store.TaskStore { return m }
