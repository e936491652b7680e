package database

import (
	"errors"
	"fmt"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/symphonyguild/guildsite/internal/pkg/env"
)

// Migrator applies the SQL files under the migrations directory. Those files
// are the only definition of the schema.
type Migrator struct {
	m *migrate.Migrate
}

// MigrationsPath is MIGRATIONS_PATH, or def when unset.
func MigrationsPath(def string) string {
	return env.GetEnv("MIGRATIONS_PATH", def)
}

// MigrationURL is the golang-migrate database url for the DB_* settings.
func MigrationURL() string {
	return "mysql://" + DSN() + "&multiStatements=true"
}

func NewMigrator(path string) (*Migrator, error) {
	m, err := migrate.New("file://"+path, MigrationURL())
	if err != nil {
		return nil, fmt.Errorf("init migrations from %s: %w", path, err)
	}
	return &Migrator{m: m}, nil
}

// Up applies all pending migrations. changed is false when the schema was
// already current.
func (mg *Migrator) Up() (changed bool, err error) {
	return applied(mg.m.Up())
}

// Down rolls back the last applied migration.
func (mg *Migrator) Down() error {
	return mg.m.Steps(-1)
}

// Goto migrates up or down to the given version.
func (mg *Migrator) Goto(version uint) (changed bool, err error) {
	return applied(mg.m.Migrate(version))
}

// Status reports the current version. ok is false before the first migration.
func (mg *Migrator) Status() (version uint, dirty bool, ok bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}
	return version, dirty, true, nil
}

func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	return errors.Join(sourceErr, dbErr)
}

func applied(err error) (bool, error) {
	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MigrateUp brings the schema up to date on startup.
func MigrateUp(path string) error {
	mg, err := NewMigrator(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := mg.Close(); err != nil {
			fiberlog.Warnf("[Database] Failed to close migrator: %v", err)
		}
	}()

	changed, err := mg.Up()
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if changed {
		fiberlog.Info("[Database] Schema migrated")
	}
	return nil
}
