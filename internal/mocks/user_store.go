package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/store"
)

// MockUserStore implements store.UserStore.
type MockUserStore struct {
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*domain.User, error)

	mu    sync.Mutex
	users map[uuid.UUID]domain.User
	Err   error
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates an empty store holding the given users.
func NewMockUserStore(users ...domain.User) *MockUserStore {
	m := &MockUserStore{users: make(map[uuid.UUID]domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

// Create implements store.UserStore.
func (m *MockUserStore) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.users[user.ID]; ok {
		return store.ErrDuplicate
	}
	m.users[user.ID] = *user
	return nil
}

// GetByID implements store.UserStore.
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

// WithTx implements store.UserStore.
func (m *MockUserStore) WithTx(*sql.Tx) store.UserStore { return m }
