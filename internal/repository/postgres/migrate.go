package postgres

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending up migration against db. This service
// has one backend (Postgres) and no checksum-verification/lock-timeout
// configuration surface, since the ACS schema has no SQLite counterpart
// to keep in sync (lib/pq and modernc.org/sqlite were dropped, see
// DESIGN.md).
func Migrate(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "acs_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("repository/postgres: create migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("repository/postgres: open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "acs", driver)
	if err != nil {
		return fmt.Errorf("repository/postgres: create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("repository/postgres: apply migrations: %w", err)
	}
	return nil
}
