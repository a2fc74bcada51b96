package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tair/supply-ledger/pkg/config"
	"github.com/tair/supply-ledger/pkg/logger"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Logger.Info().
		Str("redis_addr", cfg.Addr).
		Msg("Connected to Redis")
	return client, nil
}
