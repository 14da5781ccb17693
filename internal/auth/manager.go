// Package auth は認証・認可機能を提供します。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourusername/order-api/internal/storage"
)

// UserStore はユーザーの永続化層が実装します。
type UserStore interface {
	Insert(ctx context.Context, loginName, secretHash, displayName, address string) (int64, error)
	FindByLogin(ctx context.Context, loginName string) (*storage.User, error)
	List(ctx context.Context) ([]storage.User, error)
}

// Options は Manager の依存関係です。Limiter が nil の場合は試行回数の制限を行いません。
type Options struct {
	Users   UserStore
	Hasher  *Hasher
	Tokens  *TokenCodec
	Limiter AttemptLimiter
	Logger  *slog.Logger
	Now     func() time.Time
}

// Manager は認証ハンドラーとゲートをまとめた構造体です。
type Manager struct {
	users   UserStore
	hasher  *Hasher
	tokens  *TokenCodec
	limiter AttemptLimiter
	logger  *slog.Logger
	now     func() time.Time

	// 存在しないユーザーでも照合コストを揃えるためのハッシュ
	dummyHash string
}

// NewManager は認証マネージャーを作成します。
func NewManager(opts Options) (*Manager, error) {
	if opts.Users == nil {
		return nil, errors.New("user store is nil")
	}
	if opts.Hasher == nil {
		return nil, errors.New("hasher is nil")
	}
	if opts.Tokens == nil {
		return nil, errors.New("token codec is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	dummy, err := opts.Hasher.Hash("order-api-dummy-secret")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Manager{
		users:     opts.Users,
		hasher:    opts.Hasher,
		tokens:    opts.Tokens,
		limiter:   opts.Limiter,
		logger:    logger,
		now:       now,
		dummyHash: dummy,
	}, nil
}

func (m *Manager) retryAfter(ctx context.Context, key string) time.Duration {
	if m.limiter == nil {
		return 0
	}
	wait, err := m.limiter.RetryAfter(ctx, key)
	if err != nil {
		m.logger.Warn("login limiter unavailable", "error", err)
		return 0
	}
	return wait
}

func (m *Manager) recordFailure(ctx context.Context, key string) {
	if m.limiter == nil {
		return
	}
	remaining, err := m.limiter.RecordFailure(ctx, key)
	if err != nil {
		m.logger.Warn("login limiter unavailable", "error", err)
		return
	}
	if remaining == 0 {
		m.logger.Warn("login locked", "key", key)
	}
}

func (m *Manager) resetAttempts(ctx context.Context, key string) {
	if m.limiter == nil {
		return
	}
	if err := m.limiter.Reset(ctx, key); err != nil {
		m.logger.Warn("login limiter unavailable", "error", err)
	}
}
