package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/config"
)

const redisConnectAttempts = 5

// Redis wraps the go-redis client shared by the session store and the change bus.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis, retrying while the server comes up. Sessions
// live in Redis, so an unreachable server is an error.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	wait := 200 * time.Millisecond
	var err error
	for attempt := 1; attempt <= redisConnectAttempts; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
			return &Redis{Client: client}, nil
		}
		logger.Warn("redis not reachable yet", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	_ = client.Close()
	return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
