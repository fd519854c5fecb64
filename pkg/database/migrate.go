package database

import (
	"context"
	"embed"
	"log/slog"
	"sync"

	"github.com/go-faster/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose keeps its dialect and filesystem in package state
var gooseMu sync.Mutex

func gooseDialect(driver string) string {
	if driver == DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}

// Migrate applies every pending embedded migration
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect(cp.Driver())); err != nil {
		return errors.Wrap(err, "set migration dialect")
	}
	if err := goose.UpContext(ctx, cp.db.DB, "migrations"); err != nil {
		return errors.Wrap(err, "apply migrations")
	}

	version, err := goose.GetDBVersionContext(ctx, cp.db.DB)
	if err != nil {
		return errors.Wrap(err, "read schema version")
	}
	cp.logger.Info("database schema up to date", slog.Int64("version", version))
	return nil
}

// MigrationStatus returns the version currently applied
func (cp *ConnectionPool) MigrationStatus(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(gooseDialect(cp.Driver())); err != nil {
		return 0, errors.Wrap(err, "set migration dialect")
	}
	version, err := goose.GetDBVersionContext(ctx, cp.db.DB)
	if err != nil {
		return 0, errors.Wrap(err, "read schema version")
	}
	return version, nil
}
