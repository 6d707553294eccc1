// Package migrations applies the embedded PostgreSQL schema.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres:// driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Migrator runs schema migrations against a database URL.
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New creates a migrator for databaseURL (postgres://...).
func New(databaseURL string, logger *zap.Logger) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return &Migrator{migrate: m, logger: logger}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("schema up to date")

			return nil
		}

		return fmt.Errorf("migrate up: %w", err)
	}

	version, _, _ := m.migrate.Version()
	m.logger.Info("schema migrated", zap.Uint("version", version))

	return nil
}

// Down rolls back one migration.
func (m *Migrator) Down() error {
	if err := m.migrate.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("nothing to roll back")

			return nil
		}

		return fmt.Errorf("migrate down: %w", err)
	}

	version, _, _ := m.migrate.Version()
	m.logger.Info("schema rolled back", zap.Uint("version", version))

	return nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()

	return errors.Join(sourceErr, dbErr)
}
