package mocks

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/store"
)

// MockScheduleStore implements store.ScheduleStore.
type MockScheduleStore struct {
	Err error

	mu        sync.Mutex
	schedules map[uuid.UUID]domain.UserSchedule
}

var _ store.ScheduleStore = (*MockScheduleStore)(nil)

// NewMockScheduleStore creates a store holding the given schedules.
func NewMockScheduleStore(schedules ...domain.UserSchedule) *MockScheduleStore {
	m := &MockScheduleStore{schedules: make(map[uuid.UUID]domain.UserSchedule)}
	for _, s := range schedules {
		m.schedules[s.UserID] = s
	}
	return m
}

// GetByUserID implements store.ScheduleStore.
func (m *MockScheduleStore) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.UserSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.schedules[userID]
	if !ok {
		return nil, store.ErrScheduleNotFound
	}
	return &s, nil
}

// Upsert implements store.ScheduleStore.
func (m *MockScheduleStore) Upsert(_ context.Context, s *domain.UserSchedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.schedules[s.UserID]; ok {
		s.ID = existing.ID
	}
	s.UpdatedAt = time.Now().UTC()
	m.schedules[s.UserID] = *s
	return nil
}

// WithTx implements store.ScheduleStore.
func (m *MockScheduleStore) WithTx(*sql.Tx) store.ScheduleStore { return m }

// MockVacationStore implements store.VacationStore. Vacations are indexed by
// the user owning their schedule.
type MockVacationStore struct {
	Err error

	mu        sync.Mutex
	vacations map[uuid.UUID][]domain.Vacation
}

var _ store.VacationStore = (*MockVacationStore)(nil)

// NewMockVacationStore creates an empty store.
func NewMockVacationStore() *MockVacationStore {
	return &MockVacationStore{vacations: make(map[uuid.UUID][]domain.Vacation)}
}

// Add records a vacation for userID.
func (m *MockVacationStore) Add(userID uuid.UUID, v domain.Vacation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vacations[userID] = append(m.vacations[userID], v)
}

// FindOverlapping implements store.VacationStore.
func (m *MockVacationStore) FindOverlapping(_ context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Vacation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	first, last := domain.DateOf(from), domain.DateOf(to)
	var out []domain.Vacation
	for _, v := range m.vacations[userID] {
		if v.DateEnd.Before(first) || v.DateStart.After(last) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Stats implements store.VacationStore.
func (m *MockVacationStore) Stats(_ context.Context, userID uuid.UUID) (store.SourceStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return store.SourceStats{}, m.Err
	}
	var s store.SourceStats
	for _, v := range m.vacations[userID] {
		s.Count++
		if v.UpdatedAt.After(s.LastUpdated) {
			s.LastUpdated = v.UpdatedAt
		}
	}
	return s, nil
}

// Create implements store.VacationStore. The mock does not know schedule
// owners, so created vacations are indexed by schedule ID.
func (m *MockVacationStore) Create(_ context.Context, v *domain.Vacation) error {
	if err := v.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.vacations[v.ScheduleID] {
		if existing.Overlaps(v) {
			return store.ErrVacationOverlap
		}
	}
	m.vacations[v.ScheduleID] = append(m.vacations[v.ScheduleID], *v)
	return nil
}

// Delete implements store.VacationStore.
func (m *MockVacationStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for owner, list := range m.vacations {
		for i, v := range list {
			if v.ID == id {
				m.vacations[owner] = append(list[:i:i], list[i+1:]...)
				return nil
			}
		}
	}
	return store.ErrVacationNotFound
}

// WithTx implements store.VacationStore.
func (m *MockVacationStore) WithTx(*sql.Tx) store.VacationStore { return m }

// MockHolidayStore implements store.HolidayStore. Holidays are indexed by
// user.
type MockHolidayStore struct {
	Err error

	mu       sync.Mutex
	holidays map[uuid.UUID][]domain.Holiday
}

var _ store.HolidayStore = (*MockHolidayStore)(nil)

// NewMockHolidayStore creates an empty store.
func NewMockHolidayStore() *MockHolidayStore {
	return &MockHolidayStore{holidays: make(map[uuid.UUID][]domain.Holiday)}
}

// Add records a holiday observed by userID.
func (m *MockHolidayStore) Add(userID uuid.UUID, h domain.Holiday) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[userID] = append(m.holidays[userID], h)
}

// FindForUser implements store.HolidayStore.
func (m *MockHolidayStore) FindForUser(_ context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.Holiday
	for _, h := range m.holidays[userID] {
		if h.End.Before(start) || h.Start.After(end) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// Stats implements store.HolidayStore.
func (m *MockHolidayStore) Stats(_ context.Context, userID uuid.UUID) (store.SourceStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return store.SourceStats{}, m.Err
	}
	var s store.SourceStats
	for _, h := range m.holidays[userID] {
		s.Count++
		if h.UpdatedAt.After(s.LastUpdated) {
			s.LastUpdated = h.UpdatedAt
		}
	}
	return s, nil
}

// Create implements store.HolidayStore. Without user lookups the holiday is
// indexed by each of its department IDs.
func (m *MockHolidayStore) Create(_ context.Context, h *domain.Holiday) error {
	if err := h.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, dept := range h.DepartmentIDs {
		m.holidays[dept] = append(m.holidays[dept], *h)
	}
	return nil
}

// WithTx implements store.HolidayStore.
func (m *MockHolidayStore) WithTx(*sql.Tx) store.HolidayStore { return m }
