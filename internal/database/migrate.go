package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"

	"watermyplant/internal/middleware"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationDir = "migrations"

// goose keeps its base FS, dialect and logger in package state.
var gooseMu sync.Mutex

// Migration describes one embedded SQL migration.
type Migration struct {
	Version int64
	Name    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%05d_%s", m.Version, m.Name)
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	middleware.Logger.Info(fmt.Sprintf(format, v...))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	middleware.Logger.Error(fmt.Sprintf(format, v...))
}

// GooseDialect maps a DB_DRIVER value to the goose dialect name.
func GooseDialect(driver string) (string, error) {
	switch driver {
	case DriverPostgres, "":
		return "postgres", nil
	case DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func withGoose(driver string, fn func() error) error {
	dialect, err := GooseDialect(driver)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationFS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return fn()
}

// MigrateUp applies all pending migrations.
func MigrateUp(ctx context.Context, db *sql.DB, driver string) error {
	return withGoose(driver, func() error {
		if err := goose.UpContext(ctx, db, migrationDir); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *sql.DB, driver string) error {
	return withGoose(driver, func() error {
		if err := goose.DownContext(ctx, db, migrationDir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		return nil
	})
}

// MigrationVersion returns the current schema version and the migrations not yet applied.
func MigrationVersion(ctx context.Context, db *sql.DB, driver string) (int64, []Migration, error) {
	var (
		current int64
		pending []Migration
	)
	err := withGoose(driver, func() error {
		v, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("goose version: %w", err)
		}
		current = v

		all, err := goose.CollectMigrations(migrationDir, 0, goose.MaxVersion)
		if err != nil {
			return fmt.Errorf("collect migrations: %w", err)
		}
		for _, m := range all {
			if m.Version > current {
				pending = append(pending, Migration{Version: m.Version, Name: migrationName(m.Source)})
			}
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	if len(pending) > 0 {
		middleware.Logger.Debug("Pending migrations", slog.Int("count", len(pending)))
	}
	return current, pending, nil
}

// Migrations lists every embedded migration in version order.
func Migrations() ([]Migration, error) {
	var out []Migration
	err := withGoose(DriverPostgres, func() error {
		all, err := goose.CollectMigrations(migrationDir, 0, goose.MaxVersion)
		if err != nil {
			return err
		}
		for _, m := range all {
			out = append(out, Migration{Version: m.Version, Name: migrationName(m.Source)})
		}
		return nil
	})
	return out, err
}
