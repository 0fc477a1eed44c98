package cache

import (
	"context"
	"errors"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/estatevest/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LockerFactory creates investment lockers based on configuration
type LockerFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// LockerFactoryOption is a functional option for configuring the factory
type LockerFactoryOption func(*LockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LockerFactoryOption {
	return func(f *LockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory locker when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) LockerFactoryOption {
	return func(f *LockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewLockerFactory creates a new factory
func NewLockerFactory(cfg config.RedisConfig, opts ...LockerFactoryOption) *LockerFactory {
	f := &LockerFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Connect opens the Redis client described by the configuration
func (f *LockerFactory) Connect(ctx context.Context) (*redis.Client, error) {
	if f.redisConfig.Host == "" {
		return nil, errors.New("redis host is not configured")
	}
	return NewRedisClient(ctx, RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
}

// CreateLocker returns a Redis locker on client. A nil client falls back to
// an in-memory locker when fallback is allowed.
// WARNING: In-memory locks are not shared across processes, so two workers
// could settle the same investment concurrently; the conditional settle
// update still prevents a double payout.
func (f *LockerFactory) CreateLocker(client *redis.Client) (payout.Locker, error) {
	if client != nil {
		f.logger.Info("using Redis investment locker")
		return NewRedisLocker(client, f.redisConfig.KeyPrefix), nil
	}

	if !f.allowInMemoryFallback {
		return nil, errors.New("redis required for investment locks but unavailable")
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory investment locker. " +
		"Locks are not shared between worker instances.")
	return NewInMemoryLocker(), nil
}
