// Package bootstrap wires the process-wide runtime shared by the server and
// the maintenance commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"circles/internal/cache"
	"circles/internal/config"
	"circles/internal/database"
	"circles/internal/observability"
	"circles/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedBuiltIns bool
}

// InitRuntime connects to DB and Redis and optionally seeds the built-in circles.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()
	if r == nil {
		observability.GlobalLogger.WarnContext(ctx, "Redis unavailable; running without cache, events and distributed rate limits",
			slog.String("redis_url", cfg.RedisURL))
	}

	if opts.SeedBuiltIns {
		if err := seed.BuiltIns(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed built-in circles: %w", err)
		}
	}

	return db, r, nil
}
