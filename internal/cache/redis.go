package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Anvoria/sessionly/internal/config"
)

var (
	// RedisClient is the global Redis client instance. It stays nil when Redis is not configured.
	RedisClient *redis.Client
)

// ConnectRedis initializes the package-level RedisClient and verifies connectivity.
// It is a no-op when no Redis host is configured.
func ConnectRedis(cfg *config.RedisConfig) error {
	if !cfg.Enabled() {
		slog.Info("Redis not configured, revocation cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	RedisClient = client
	slog.Info("Redis connected successfully", "address", cfg.Address())
	return nil
}

// CloseRedis closes the global RedisClient if it is initialized
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}
