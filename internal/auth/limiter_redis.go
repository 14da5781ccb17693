package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	attemptKeyPrefix = "login:attempts:"
	lockKeyPrefix    = "login:lock:"
)

// RedisLimiter は複数インスタンスで状態を共有するための AttemptLimiter です。
type RedisLimiter struct {
	rdb    *redis.Client
	policy LimiterPolicy
}

// NewRedisLimiter は RedisLimiter を作成します。
func NewRedisLimiter(rdb *redis.Client, policy LimiterPolicy) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, policy: policy}
}

// RetryAfter は AttemptLimiter を実装します。
func (l *RedisLimiter) RetryAfter(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.rdb.PTTL(ctx, lockKey(key)).Result()
	if err != nil {
		return 0, err
	}
	// キーが存在しない場合は負の値が返る
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

// RecordFailure は AttemptLimiter を実装します。
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) (int, error) {
	attempts := attemptKey(key)

	// TTL の無いカウンターが残らないよう INCR と同じトランザクションで期限を付ける
	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, attempts)
		pipe.ExpireNX(ctx, attempts, l.policy.Window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	count := incr.Val()

	if count >= int64(l.policy.MaxAttempts) {
		_, err = l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, lockKey(key), 1, l.policy.Lock)
			pipe.Del(ctx, attempts)
			return nil
		})
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	return l.policy.MaxAttempts - int(count), nil
}

// Reset は AttemptLimiter を実装します。
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, attemptKey(key), lockKey(key)).Err()
}

func attemptKey(key string) string {
	return attemptKeyPrefix + key
}

func lockKey(key string) string {
	return lockKeyPrefix + key
}
