// Package migrate applies versioned SQL migrations to a SQLite database.
// The configuration backend uses it to create and upgrade its schema.
package migrate

import (
	"database/sql"
	"fmt"
)

// Migration is a single schema change with scripts for both directions.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// DB is the subset of database operations migrations run against, satisfied
// by both *sql.DB and *sql.Tx.
type DB interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// MigrationProvider supplies migrations and tracks which have been applied.
type MigrationProvider interface {
	GetMigrations() ([]Migration, error)
	GetCurrentVersion(db *sql.DB) (int, error)
	SetVersion(db DB, version int) error
	CreateMigrationTable(db *sql.DB) error
}

// Migrator applies migrations from a provider to a database.
type Migrator struct {
	db       *sql.DB
	provider MigrationProvider
}

// NewMigrator creates a migrator for the given database and provider.
func NewMigrator(db *sql.DB, provider MigrationProvider) *Migrator {
	return &Migrator{
		db:       db,
		provider: provider,
	}
}

// MigrateUp applies all pending migrations.
func (m *Migrator) MigrateUp() error {
	if err := m.provider.CreateMigrationTable(m.db); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	currentVersion, err := m.provider.GetCurrentVersion(m.db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	migrations, err := m.provider.GetMigrations()
	if err != nil {
		return fmt.Errorf("failed to get migrations: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version > currentVersion {
			if err := m.executeMigration(migration, true); err != nil {
				return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
			}
		}
	}
	return nil
}

// MigrateDown rolls back the most recently applied migration.
func (m *Migrator) MigrateDown() error {
	currentVersion, err := m.provider.GetCurrentVersion(m.db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if currentVersion == 0 {
		return fmt.Errorf("no migrations to roll back")
	}

	migrations, err := m.provider.GetMigrations()
	if err != nil {
		return fmt.Errorf("failed to get migrations: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version == currentVersion {
			if err := m.executeMigration(migration, false); err != nil {
				return fmt.Errorf("failed to roll back migration %d (%s): %w", migration.Version, migration.Name, err)
			}
			return nil
		}
	}
	return fmt.Errorf("migration %d not found", currentVersion)
}

// MigrateTo migrates up or down until the given version is current.
func (m *Migrator) MigrateTo(targetVersion int) error {
	if err := m.provider.CreateMigrationTable(m.db); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	currentVersion, err := m.provider.GetCurrentVersion(m.db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if currentVersion == targetVersion {
		return nil
	}

	migrations, err := m.provider.GetMigrations()
	if err != nil {
		return fmt.Errorf("failed to get migrations: %w", err)
	}

	if targetVersion > currentVersion {
		for _, migration := range migrations {
			if migration.Version > currentVersion && migration.Version <= targetVersion {
				if err := m.executeMigration(migration, true); err != nil {
					return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
				}
			}
		}
		return nil
	}

	// GetMigrations returns ascending order, so roll back in reverse.
	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if migration.Version <= currentVersion && migration.Version > targetVersion {
			if err := m.executeMigration(migration, false); err != nil {
				return fmt.Errorf("failed to roll back migration %d (%s): %w", migration.Version, migration.Name, err)
			}
		}
	}
	return nil
}

// GetCurrentVersion returns the currently applied migration version.
func (m *Migrator) GetCurrentVersion() (int, error) {
	if err := m.provider.CreateMigrationTable(m.db); err != nil {
		return 0, fmt.Errorf("failed to create migration table: %w", err)
	}
	return m.provider.GetCurrentVersion(m.db)
}

// executeMigration runs one migration inside a transaction and records the
// resulting version.
func (m *Migrator) executeMigration(migration Migration, up bool) error {
	script := migration.Up
	newVersion := migration.Version
	if !up {
		script = migration.Down
		newVersion = migration.Version - 1
	}
	if script == "" {
		return fmt.Errorf("migration %d has no script for this direction", migration.Version)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(script); err != nil {
		return fmt.Errorf("failed to execute migration script: %w", err)
	}
	if err := m.provider.SetVersion(tx, newVersion); err != nil {
		return fmt.Errorf("failed to record migration version: %w", err)
	}
	return tx.Commit()
}
