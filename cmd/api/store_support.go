package main

import (
	"context"
	"database/sql"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/order-api/internal/auth"
	"github.com/yourusername/order-api/internal/config"
	"github.com/yourusername/order-api/internal/storage"
)

const storeConnectTimeout = 30 * time.Second

func setupStore(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()
	return storage.Open(ctx, cfg.DatabaseURL(), cfg.DBMaxConns)
}

// setupLimiter はログイン試行回数の制限を用意します。
// LOGIN_MAX_ATTEMPTS が 0 以下なら無効、REDIS_URL が空ならプロセス内で管理します。
func setupLimiter(cfg *config.Config) (auth.AttemptLimiter, func(), error) {
	noop := func() {}
	if cfg.LoginMaxAttempts <= 0 {
		return nil, noop, nil
	}

	policy := auth.LimiterPolicy{
		MaxAttempts: cfg.LoginMaxAttempts,
		Window:      cfg.LoginWindow(),
		Lock:        cfg.LoginLock(),
	}
	if cfg.RedisURL == "" {
		return auth.NewMemoryLimiter(policy), noop, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, noop, err
	}
	redisClient := redis.NewClient(opt)
	return auth.NewRedisLimiter(redisClient, policy), func() { _ = redisClient.Close() }, nil
}
