package database

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"watermyplant/internal/config"
	"watermyplant/internal/middleware"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	CurrentVersion     int64
	PendingMigrations  []Migration
}

func isProdLikeEnv(env string) bool {
	e := strings.ToLower(strings.TrimSpace(env))
	return e == "production" || e == "prod" || e == "staging" || e == "stage"
}

func normalizedSchemaMode(cfg *config.Config) string {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		return SchemaModeHybrid
	}
	return mode
}

func schemaPolicy(cfg *config.Config) (runSQL bool, runAuto bool, err error) {
	mode := normalizedSchemaMode(cfg)
	prodLike := isProdLikeEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		return true, false, nil
	case SchemaModeAuto:
		if prodLike {
			return false, false, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q; use sql migrations", cfg.Env)
		}
		return false, true, nil
	case SchemaModeHybrid:
		// sqlite reports the SQL column types verbatim, so AutoMigrate would rebuild every table.
		return true, !prodLike && cfg.DBDriver != DriverSQLite, nil
	default:
		return false, false, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// AutoMigrate runs GORM AutoMigrate over PersistentModels.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the schema up to date according to DB_SCHEMA_MODE.
// sql runs the embedded goose migrations, auto runs GORM AutoMigrate, hybrid
// runs both outside production-like environments.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return err
	}

	if runSQL {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := MigrateUp(ctx, sqlDB, cfg.DBDriver); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}

	if runAuto {
		mode := normalizedSchemaMode(cfg)
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", mode), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	return nil
}

func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               normalizedSchemaMode(cfg),
		Environment:        cfg.Env,
		WillRunSQL:         runSQL,
		WillRunAutoMigrate: runAuto,
	}

	if !runSQL {
		return status, nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	current, pending, err := MigrationVersion(ctx, sqlDB, cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	status.CurrentVersion = current
	status.PendingMigrations = pending

	return status, nil
}

// migrationName turns "migrations/00001_create_core_tables.sql" into "create_core_tables".
func migrationName(source string) string {
	base := strings.TrimSuffix(path.Base(source), path.Ext(source))
	if _, name, ok := strings.Cut(base, "_"); ok {
		return name
	}
	return base
}
