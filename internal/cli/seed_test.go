package cli

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/mocks"
	"github.com/phrazzld/taskcal/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const olegID = "6f1c1a52-3b39-4d55-9c3e-0b8f0d6f2a10"

const seedFixture = `
departments:
  - key: eng
    name: Engineering
statuses: [New, In Progress]
users:
  - key: oleg
    id: ` + olegID + `
    first_name: Oleg
    last_name: Ivanov
    department: eng
    job_title: Lead
    telegram: oleg
  - key: anna
    first_name: Anna
    last_name: Petrova
    department: eng
schedules:
  - user: oleg
    work_start: "09:00"
    work_end: "18:00"
    personal_start: "19:00"
    personal_end: "21:00"
    vacations:
      - start: "2024-06-12"
        end: "2024-06-14"
        tag: vacation
tasks:
  - title: Plan
    manager: oleg
    deadline: "2024-06-10T14:00:00"
    status: In Progress
    tags: ["#dev-backend-feed"]
  - title: Review
    manager: anna
    priority: false
holidays:
  - name: Founders Day
    start: "2024-06-20T00:00:00"
    end: "2024-06-20T23:59:59"
    departments: [eng]
`

type fakeDepartmentStore struct {
	mu    sync.Mutex
	depts []domain.Department
}

func (f *fakeDepartmentStore) Create(_ context.Context, d *domain.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.depts = append(f.depts, *d)
	return nil
}

func (f *fakeDepartmentStore) WithTx(*sql.Tx) store.DepartmentStore { return f }

type fakeStatusStore struct {
	mu       sync.Mutex
	statuses map[string]domain.Status
}

func (f *fakeStatusStore) GetOrCreate(_ context.Context, name string) (*domain.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statuses == nil {
		f.statuses = make(map[string]domain.Status)
	}
	s, ok := f.statuses[name]
	if !ok {
		s = domain.Status{ID: uuid.New(), Name: name}
		f.statuses[name] = s
	}
	return &s, nil
}

func (f *fakeStatusStore) Create(_ context.Context, st *domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statuses == nil {
		f.statuses = make(map[string]domain.Status)
	}
	if _, ok := f.statuses[st.Name]; ok {
		return store.NewStoreError("status", "create", "name is taken", store.ErrStatusExists)
	}
	st.ID = uuid.New()
	f.statuses[st.Name] = *st
	return nil
}

func (f *fakeStatusStore) WithTx(*sql.Tx) store.StatusStore { return f }

type fakeTagStore struct {
	mu   sync.Mutex
	tags map[uuid.UUID][]domain.Tag
}

func (f *fakeTagStore) Create(_ context.Context, tag *domain.Tag, taskIDs ...uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tags == nil {
		f.tags = make(map[uuid.UUID][]domain.Tag)
	}
	for _, id := range taskIDs {
		f.tags[id] = append(f.tags[id], *tag)
	}
	return nil
}

func (f *fakeTagStore) ListForTask(_ context.Context, taskID uuid.UUID) ([]domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tags[taskID], nil
}

func (f *fakeTagStore) WithTx(*sql.Tx) store.TagStore { return f }

type seedFakes struct {
	stores    SeedStores
	depts     *fakeDepartmentStore
	statuses  *fakeStatusStore
	tags      *fakeTagStore
	users     *mocks.MockUserStore
	tasks     *mocks.MockTaskStore
	schedules *mocks.MockScheduleStore
	vacations *mocks.MockVacationStore
	holidays  *mocks.MockHolidayStore
}

func newSeedFakes() *seedFakes {
	f := &seedFakes{
		depts:     &fakeDepartmentStore{},
		statuses:  &fakeStatusStore{},
		tags:      &fakeTagStore{},
		users:     mocks.NewMockUserStore(),
		tasks:     mocks.NewMockTaskStore(),
		schedules: mocks.NewMockScheduleStore(),
		vacations: mocks.NewMockVacationStore(),
		holidays:  mocks.NewMockHolidayStore(),
	}
	f.stores = SeedStores{
		Departments: f.depts,
		Users:       f.users,
		Statuses:    f.statuses,
		Tags:        f.tags,
		Tasks:       f.tasks,
		Schedules:   f.schedules,
		Vacations:   f.vacations,
		Holidays:    f.holidays,
	}
	return f
}

func TestLoadFixture(t *testing.T) {
	f, err := LoadFixture(strings.NewReader(seedFixture))
	require.NoError(t, err)

	require.Len(t, f.Users, 2)
	assert.Equal(t, olegID, f.Users[0].ID)
	require.Len(t, f.Schedules, 1)
	require.Len(t, f.Schedules[0].Vacations, 1)
	assert.Equal(t, "2024-06-12", f.Schedules[0].Vacations[0].Start)
	require.Len(t, f.Tasks, 2)
	require.NotNil(t, f.Tasks[1].Priority)
	assert.False(t, *f.Tasks[1].Priority)
	assert.Nil(t, f.Tasks[0].Priority)
}

func TestLoadFixture_Errors(t *testing.T) {
	empty, err := LoadFixture(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Users)

	_, err = LoadFixture(strings.NewReader("users:\n  - key: a\n    nickname: b\n"))
	assert.ErrorIs(t, err, ErrInvalidFixture, "unknown fields are rejected")

	_, err = LoadFixture(strings.NewReader("users: [unterminated"))
	assert.ErrorIs(t, err, ErrInvalidFixture)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	fx, err := LoadFixture(strings.NewReader(seedFixture))
	require.NoError(t, err)
	f := newSeedFakes()

	res, err := Seed(ctx, f.stores, fx, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Departments)
	assert.Equal(t, 2, res.Statuses)
	assert.Equal(t, 1, res.Schedules)
	assert.Equal(t, 1, res.Vacations)
	assert.Equal(t, 2, res.Tasks)
	assert.Equal(t, 1, res.Tags)
	assert.Equal(t, 1, res.Holidays)
	require.Len(t, res.Users, 2)

	oleg := uuid.MustParse(olegID)
	assert.Equal(t, oleg, res.Users["oleg"], "fixture ids are kept")
	assert.NotEqual(t, uuid.Nil, res.Users["anna"])

	user, err := f.users.GetByID(ctx, oleg)
	require.NoError(t, err)
	assert.Equal(t, "@oleg", user.TelegramUsername)
	require.Len(t, f.depts.depts, 1)
	assert.Equal(t, f.depts.depts[0].ID, user.DepartmentID)

	sch, err := f.schedules.GetByUserID(ctx, oleg)
	require.NoError(t, err)
	assert.Equal(t, domain.MustTimeOfDay(9, 0, 0), sch.WorkStart)
	require.True(t, sch.HasPersonalHours())
	assert.Equal(t, domain.MustTimeOfDay(21, 0, 0), *sch.PersonalEnd)

	vacStats, err := f.vacations.Stats(ctx, sch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, vacStats.Count)

	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	tasks, err := f.tasks.FindByManagerInRange(ctx, oleg, day, day.Add(24*time.Hour-time.Nanosecond))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Plan", tasks[0].Title)
	assert.Equal(t, 14, tasks[0].Deadline.Hour())

	tags, err := f.tags.ListForTask(ctx, tasks[0].ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "#dev-backend-feed", tags[0].String())
	assert.Len(t, f.statuses.statuses, 2, "declared statuses are reused by tasks")
	assert.Contains(t, f.statuses.statuses, "In Progress")

	holStats, err := f.holidays.Stats(ctx, user.DepartmentID)
	require.NoError(t, err)
	assert.Equal(t, 1, holStats.Count)
}

func TestSeed_InvalidReferences(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
		errIs   error
	}{
		{
			name:    "unknown department",
			fixture: "users:\n  - key: a\n    first_name: A\n    department: nope\n",
			errIs:   ErrInvalidFixture,
		},
		{
			name:    "repeated status",
			fixture: "statuses: [New, New]\n",
			errIs:   store.ErrStatusExists,
		},
		{
			name: "repeated user key",
			fixture: "departments:\n  - key: d\n    name: D\n" +
				"users:\n  - key: a\n    first_name: A\n    department: d\n  - key: a\n    first_name: B\n    department: d\n",
			errIs: ErrInvalidFixture,
		},
		{
			name:    "unknown manager",
			fixture: "tasks:\n  - title: T\n    manager: ghost\n",
			errIs:   ErrInvalidFixture,
		},
		{
			name: "bad user id",
			fixture: "departments:\n  - key: d\n    name: D\n" +
				"users:\n  - key: a\n    id: not-a-uuid\n    first_name: A\n    department: d\n",
			errIs: domain.ErrInvalidID,
		},
		{
			name: "bad deadline",
			fixture: "departments:\n  - key: d\n    name: D\n" +
				"users:\n  - key: a\n    first_name: A\n    department: d\n" +
				"tasks:\n  - title: T\n    manager: a\n    deadline: tomorrow\n",
			errIs: domain.ErrInvalidFormat,
		},
		{
			name: "work hours out of order",
			fixture: "departments:\n  - key: d\n    name: D\n" +
				"users:\n  - key: a\n    first_name: A\n    department: d\n" +
				"schedules:\n  - user: a\n    work_start: \"18:00\"\n    work_end: \"09:00\"\n",
			errIs: domain.ErrValidation,
		},
		{
			name: "bad tag",
			fixture: "departments:\n  - key: d\n    name: D\n" +
				"users:\n  - key: a\n    first_name: A\n    department: d\n" +
				"tasks:\n  - title: T\n    manager: a\n    tags: [nohash]\n",
			errIs: domain.ErrInvalidTag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx, err := LoadFixture(strings.NewReader(tt.fixture))
			require.NoError(t, err)

			_, err = Seed(context.Background(), newSeedFakes().stores, fx, time.UTC)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.errIs), "got %v", err)
			if errors.Is(err, store.ErrDuplicate) {
				assert.ErrorIs(t, err, ErrInvalidFixture)
			}
		})
	}
}

func TestParseFixtureTime(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*3600)
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-06-10", time.Date(2024, 6, 10, 0, 0, 0, 0, moscow)},
		{"2024-06-10T14:30:00", time.Date(2024, 6, 10, 14, 30, 0, 0, moscow)},
		{"2024-06-10 14:30:00", time.Date(2024, 6, 10, 14, 30, 0, 0, moscow)},
		{"2024-06-10T14:30", time.Date(2024, 6, 10, 14, 30, 0, 0, moscow)},
		{"2024-06-10T14:30:00Z", time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseFixtureTime(tt.raw, moscow)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}

	_, err := parseFixtureTime("June 10", moscow)
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}
