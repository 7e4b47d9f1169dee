//go:build integration

package cli

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/feed"
	"github.com/phrazzld/taskcal/internal/platform/postgres"
	"github.com/phrazzld/taskcal/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_Postgres(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		fx, err := LoadFixture(strings.NewReader(seedFixture))
		require.NoError(t, err)

		stores := NewSeedStores(postgres.NewStores(db, time.UTC, nil)).WithTx(tx)
		res, err := Seed(ctx, stores, fx, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Tasks)

		builder := feed.NewBuilder(feed.Sources{
			Users:     stores.Users,
			Tasks:     stores.Tasks,
			Schedules: stores.Schedules,
			Vacations: stores.Vacations,
			Holidays:  stores.Holidays,
		}, nil, nil)

		r, err := domain.ParseDateRange("2024-06-10", "2024-06-10", time.UTC)
		require.NoError(t, err)
		f, err := builder.Build(ctx, uuid.MustParse(olegID), r)
		require.NoError(t, err)

		require.Len(t, f.Tasks, 1)
		assert.Equal(t, "Plan (Oleg Ivanov)", f.Tasks[0].Title)
		assert.Equal(t, "2024-06-10T14:00:00", f.Tasks[0].Start)
		assert.Equal(t, "status-in-progress", f.Tasks[0].ClassName)
		require.Len(t, f.Background, 3, "busy-before, personal, busy-after")
		assert.Equal(t, domain.KindPersonal, f.Background[1].Kind)
	})
}
