//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/platform/postgres"
	"github.com/phrazzld/taskcal/internal/store"
	"github.com/phrazzld/taskcal/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dept     *domain.Department
	manager  *domain.User
	schedule *domain.UserSchedule
}

func seedFixture(t *testing.T, ctx context.Context, tx *sql.Tx) fixture {
	t.Helper()

	dept, err := domain.NewDepartment("Engineering")
	require.NoError(t, err)
	require.NoError(t, postgres.NewPostgresDepartmentStore(tx, nil).Create(ctx, dept))

	manager, err := domain.NewUser(dept.ID, "Anna", "Smirnova", "Lead", "anna")
	require.NoError(t, err)
	require.NoError(t, postgres.NewPostgresUserStore(tx, nil).Create(ctx, manager))

	sch, err := domain.NewUserSchedule(manager.ID, domain.MustTimeOfDay(9, 0, 0), domain.MustTimeOfDay(18, 0, 0))
	require.NoError(t, err)
	ps, pe := domain.MustTimeOfDay(19, 0, 0), domain.MustTimeOfDay(20, 30, 0)
	sch.PersonalStart, sch.PersonalEnd = &ps, &pe
	require.NoError(t, postgres.NewPostgresScheduleStore(tx, nil).Upsert(ctx, sch))

	return fixture{dept: dept, manager: manager, schedule: sch}
}

func TestPostgresStores_Integration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	t.Run("tasks in range with status", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			f := seedFixture(t, ctx, tx)
			tasks := postgres.NewPostgresTaskStore(tx, nil, time.UTC)

			status, err := postgres.NewPostgresStatusStore(tx, nil).GetOrCreate(ctx, "In Progress")
			require.NoError(t, err)

			deadline := time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)
			task, err := domain.NewTask("Quarterly report", f.manager.ID, deadline, time.UTC)
			require.NoError(t, err)
			task.StatusID = &status.ID
			require.NoError(t, tasks.Create(ctx, task))

			outside, err := domain.NewTask("Later", f.manager.ID, deadline.AddDate(0, 1, 0), time.UTC)
			require.NoError(t, err)
			require.NoError(t, tasks.Create(ctx, outside))

			found, err := tasks.FindByManagerInRange(ctx, f.manager.ID,
				time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC))
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, "Quarterly report", found[0].Title)
			assert.Equal(t, "In Progress", found[0].StatusName)
			assert.Equal(t, "Anna Smirnova", found[0].ManagerName())

			stats, err := tasks.Stats(ctx, f.manager.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, stats.Count)
			assert.False(t, stats.LastUpdated.IsZero())

			latest, err := tasks.FindLatestUpdated(ctx, f.manager.ID)
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, latest.ID)
		})
	})

	t.Run("schedule round trip", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			f := seedFixture(t, ctx, tx)

			got, err := postgres.NewPostgresScheduleStore(tx, nil).GetByUserID(ctx, f.manager.ID)
			require.NoError(t, err)
			assert.Equal(t, f.schedule.ID, got.ID)
			assert.Equal(t, "09:00:00", got.WorkStart.String())
			assert.Equal(t, "18:00:00", got.WorkEnd.String())
			require.True(t, got.HasPersonalHours())
			assert.Equal(t, "20:30:00", got.PersonalEnd.String())
		})
	})

	t.Run("vacation overlap rejected", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			f := seedFixture(t, ctx, tx)
			vacations := postgres.NewPostgresVacationStore(tx, nil)

			first, err := domain.NewVacation(f.schedule.ID,
				time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC), "summer")
			require.NoError(t, err)
			require.NoError(t, vacations.Create(ctx, first))

			clash, err := domain.NewVacation(f.schedule.ID,
				time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC), "")
			require.NoError(t, err)
			assert.ErrorIs(t, vacations.Create(ctx, clash), store.ErrVacationOverlap)

			found, err := vacations.FindOverlapping(ctx, f.manager.ID,
				time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, "2024-07-01", found[0].DateStart.Format(domain.DateLayout))

			require.NoError(t, vacations.Delete(ctx, first.ID))
			assert.ErrorIs(t, vacations.Delete(ctx, first.ID), store.ErrVacationNotFound)
		})
	})

	t.Run("holidays by department", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			f := seedFixture(t, ctx, tx)
			holidays := postgres.NewPostgresHolidayStore(tx, nil)

			start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			h, err := domain.NewHoliday("New Year", start, start.Add(48*time.Hour), f.dept.ID)
			require.NoError(t, err)
			require.NoError(t, holidays.Create(ctx, h))

			found, err := holidays.FindForUser(ctx, f.manager.ID, start, start.Add(24*time.Hour))
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, "New Year", found[0].Name)

			stats, err := holidays.Stats(ctx, f.manager.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, stats.Count)
		})
	})

	t.Run("unknown user", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			_, err := postgres.NewPostgresUserStore(tx, nil).GetByID(context.Background(), uuid.New())
			assert.ErrorIs(t, err, store.ErrUserNotFound)
		})
	})
}
