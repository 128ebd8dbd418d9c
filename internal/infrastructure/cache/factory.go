package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/notaria/backend/internal/domain/shared"
	"github.com/notaria/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const redisConnectTimeout = 5 * time.Second

// NewIdempotencyStore returns the Redis store when redis.enabled is set and
// the in-memory store otherwise. An unreachable Redis falls back to memory
// outside production and is an error in production.
func NewIdempotencyStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Redis.Enabled {
		logger.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(0), nil
	}

	store, err := NewRedisIdempotencyStore(ctx, cfg.Redis, redisConnectTimeout)
	if err == nil {
		logger.Info("Using Redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
		return store, nil
	}
	if cfg.App.IsProduction() {
		return nil, fmt.Errorf("redis is enabled but unavailable: %w", err)
	}

	logger.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
	return NewInMemoryIdempotencyStore(0), nil
}
