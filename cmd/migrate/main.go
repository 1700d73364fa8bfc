// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"strings"

	"watermyplant/internal/config"
	"watermyplant/internal/database"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|down|status|auto>")
}

// openSQL returns the handle goose runs on. Postgres goes through the pgx
// stdlib driver; sqlite reuses gorm's pool so the file driver is registered once.
func openSQL(cfg *config.Config) (*sql.DB, func() error, error) {
	if cfg.DBDriver != database.DriverSQLite {
		db, err := sql.Open("pgx", database.DSN(cfg))
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}

	gdb, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, sqlDB.Close, nil
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))

	if cmd == "auto" || cmd == "status" {
		db, err := database.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer func() { _ = database.Close(db) }()

		if cmd == "auto" {
			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("auto schema apply failed: %w", err)
			}
			log.Println("automigrations applied")
			return nil
		}

		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		log.Printf("mode=%s env=%s run_sql=%t run_auto=%t version=%d pending=%d",
			status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
			status.CurrentVersion, len(status.PendingMigrations))
		for _, m := range status.PendingMigrations {
			log.Printf("pending: %s", m)
		}
		return nil
	}

	sqlDB, closeDB, err := openSQL(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = closeDB() }()

	switch cmd {
	case "up":
		if err := database.MigrateUp(ctx, sqlDB, cfg.DBDriver); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "down":
		if err := database.MigrateDown(ctx, sqlDB, cfg.DBDriver); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Println("rolled back latest migration")
	default:
		return usage()
	}

	return nil
}
