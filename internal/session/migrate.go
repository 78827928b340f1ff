package session

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// RunMigrations applies every pending migration found in migrationsPath
func RunMigrations(cfg DBConfig, migrationsPath string) error {
	m, closeDB, err := newMigrate(cfg, migrationsPath)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// RollbackMigrations reverts the most recent migration
func RollbackMigrations(cfg DBConfig, migrationsPath string) error {
	m, closeDB, err := newMigrate(cfg, migrationsPath)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

// MigrationVersion returns the applied version and whether it is dirty
func MigrationVersion(cfg DBConfig, migrationsPath string) (uint, bool, error) {
	m, closeDB, err := newMigrate(cfg, migrationsPath)
	if err != nil {
		return 0, false, err
	}
	defer closeDB()

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

func newMigrate(cfg DBConfig, migrationsPath string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, func() { db.Close() }, nil
}
