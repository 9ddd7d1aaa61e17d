package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jonesrussell/roster/internal/database"
	"github.com/jonesrussell/roster/internal/domain"
)

const postgresStartupTimeout = 90 * time.Second

// startPostgres runs a disposable PostgreSQL container and returns its DSN.
func startPostgres(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), postgresStartupTimeout)
	defer cancel()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("roster_test"),
		postgres.WithUsername("roster"),
		postgres.WithPassword("roster"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Skipf("Skipping integration test: could not start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	return dsn
}

func TestPostgres_ContactRepository(t *testing.T) {
	dsn := startPostgres(t)

	for _, driver := range []string{database.DriverPostgres, database.DriverPgx} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()

			db, err := database.Open(ctx, database.Config{Driver: driver, DSN: dsn})
			require.NoError(t, err)
			t.Cleanup(func() {
				_, _ = db.ExecContext(context.Background(), "TRUNCATE TABLE contacts, crawl_runs")
				_ = db.Close()
			})

			repo := database.NewContactRepository(db)

			firstID, err := repo.Upsert(ctx, contact("jane doe", "Partner", "columbus", "jdoe@example.com"))
			require.NoError(t, err)
			secondID, err := repo.Upsert(ctx, contact("jane doe", "Senior Partner", "columbus", "jdoe@example.com"))
			require.NoError(t, err)
			assert.Equal(t, firstID, secondID)

			_, err = repo.Create(ctx, contact("jane doe", "Associate", "columbus", "jdoe@example.com"))
			require.ErrorIs(t, err, domain.ErrDuplicateContact)

			noEmailID, err := repo.Upsert(ctx, contact("john roe", "Associate", "cleveland", ""))
			require.NoError(t, err)
			againID, err := repo.Upsert(ctx, contact("john roe", "Partner", "cleveland", ""))
			require.NoError(t, err)
			assert.Equal(t, noEmailID, againID)

			found, err := repo.Search(ctx, database.SearchFilter{Location: "Colum"})
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, "Senior Partner", found[0].Position)

			removed, err := repo.DeleteByName(ctx, "jane doe")
			require.NoError(t, err)
			assert.Equal(t, int64(1), removed)
		})
	}
}
