package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies every pending migration for the connection's dialect. It is a no-op when the
// schema is current.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	source, err := iofs.New(migrations, "migrations/"+dialectDir(db.DriverName()))
	if err != nil {
		return fmt.Errorf("load migrations for %s: %w", db.DriverName(), err)
	}

	driver, release, err := migrationDriver(ctx, db)
	if err != nil {
		_ = source.Close()
		return err
	}
	defer release()

	m, err := migrate.NewWithInstance("iofs", source, db.DriverName(), driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if upErr := m.Up(); upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", upErr)
	}

	return nil
}

// migrationDriver returns a migrate driver over db and a release func that never closes db.
// The postgres driver pins a connection for the advisory lock, so it gets its own pooled
// connection. SQLite shares the single connection db already holds.
func migrationDriver(ctx context.Context, db *sqlx.DB) (migratedb.Driver, func(), error) {
	if db.DriverName() == DriverSQLite {
		driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("create sqlite migrate driver: %w", err)
		}
		return driver, func() {}, nil
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire migration connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("create postgres migrate driver: %w", err)
	}
	return driver, func() { _ = driver.Close() }, nil
}

func dialectDir(driverName string) string {
	if driverName == DriverSQLite {
		return "sqlite"
	}
	return "postgres"
}
