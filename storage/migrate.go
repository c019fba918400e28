package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// RunMigrations applies every pending migration for the given driver. It opens
// its own connection because the migrate drivers close the instance they wrap.
func RunMigrations(driver, dsn string) error {
	// Both Postgres drivers share one schema; lib/pq runs the multi-statement files.
	openAs := driver
	if driver == DriverPgx {
		openAs = DriverPostgres
	}

	migrateDB, err := sql.Open(openAs, dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	var (
		dbDriver database.Driver
		dir      string
	)
	switch driver {
	case DriverSQLite:
		dbDriver, err = sqlitemigrate.WithInstance(migrateDB, &sqlitemigrate.Config{})
		dir = "migrations/sqlite"
	case DriverPostgres, DriverPgx:
		dbDriver, err = postgres.WithInstance(migrateDB, &postgres.Config{})
		dir = "migrations/postgres"
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", driver, err)
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, openAs, dbDriver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
