// Package bootstrap wires the process-wide runtime shared by the API server and the CLI tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"watermyplant/internal/cache"
	"watermyplant/internal/config"
	"watermyplant/internal/database"
	"watermyplant/internal/middleware"
	"watermyplant/internal/observability"
	"watermyplant/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// Metrics receives gorm and redis instrumentation. A fresh registry is used when nil.
	Metrics *observability.Metrics
	// SkipSchema leaves the schema alone, for tools that manage migrations themselves.
	SkipSchema bool
	// SkipRedis runs without the cache.
	SkipRedis bool
}

// Runtime holds the initialized connections.
type Runtime struct {
	DB      *gorm.DB
	Redis   *redis.Client // nil when redis is unreachable or skipped
	Metrics *observability.Metrics
}

// InitRuntime connects to the database and redis, applies the schema and,
// in development, the configured seed preset.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if !opts.SkipSchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("schema setup failed: %w", err)
		}
	}

	if err := metrics.InstrumentDB(db); err != nil {
		middleware.Logger.Warn("failed to instrument database", slog.String("error", err.Error()))
	}

	rt := &Runtime{DB: db, Metrics: metrics}
	if !opts.SkipRedis {
		rt.Redis = cache.InitRedis(cfg.RedisURL, metrics)
	}

	if err := ensureDevPreset(ctx, cfg, db); err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("failed to apply development seed preset: %w", err)
	}

	return rt, nil
}

// Close releases the redis client and the database pool.
func (r *Runtime) Close() error {
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	return database.Close(r.DB)
}

func ensureDevPreset(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	path := strings.TrimSpace(cfg.DevSeedPreset)
	if path == "" || !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	preset, err := seed.LoadPreset(path)
	if err != nil {
		return err
	}
	sum, err := seed.NewSeeder(db, seed.Options{}).ApplyPreset(ctx, preset)
	if err != nil {
		return err
	}

	middleware.Logger.Info("development seed preset ensured",
		slog.String("preset", path),
		slog.Int("new_users", sum.Users),
		slog.Int("new_plants", sum.Plants),
	)
	return nil
}
