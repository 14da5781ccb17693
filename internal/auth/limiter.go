package auth

import (
	"context"
	"sync"
	"time"
)

// AttemptLimiter はログイン失敗回数を数え、一定回数を超えたキーをロックします。
type AttemptLimiter interface {
	// RetryAfter はロック中であれば残り時間を、そうでなければ 0 を返します。
	RetryAfter(ctx context.Context, key string) (time.Duration, error)
	// RecordFailure は失敗を記録し、ロックまでの残り回数を返します。
	RecordFailure(ctx context.Context, key string) (int, error)
	// Reset はキーの状態を消去します。
	Reset(ctx context.Context, key string) error
}

// LimiterPolicy はロックの条件です。
type LimiterPolicy struct {
	MaxAttempts int           // Window 内にこの回数失敗するとロック
	Window      time.Duration // 失敗回数を数える期間
	Lock        time.Duration // ロック時間
}

// limiterSweepInterval 回の新規登録ごとに期限切れの状態をまとめて削除する
const limiterSweepInterval = 1024

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// expired は期間もロックも過ぎて保持する必要がなくなったかを返します。
func (s *attemptState) expired(now time.Time, window time.Duration) bool {
	return now.Sub(s.firstAttempt) > window && !now.Before(s.lockedUntil)
}

// MemoryLimiter はプロセス内で状態を保持する AttemptLimiter です。
type MemoryLimiter struct {
	policy   LimiterPolicy
	now      func() time.Time
	lock     sync.Mutex
	attempts map[string]*attemptState
	inserts  int
}

// NewMemoryLimiter は MemoryLimiter を作成します。
func NewMemoryLimiter(policy LimiterPolicy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:   policy,
		now:      time.Now,
		attempts: make(map[string]*attemptState),
	}
}

// RetryAfter は AttemptLimiter を実装します。
func (l *MemoryLimiter) RetryAfter(_ context.Context, key string) (time.Duration, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	state, ok := l.attempts[key]
	if !ok {
		return 0, nil
	}
	now := l.now()
	if state.expired(now, l.policy.Window) {
		delete(l.attempts, key)
		return 0, nil
	}
	if !now.Before(state.lockedUntil) {
		return 0, nil
	}
	return state.lockedUntil.Sub(now), nil
}

// RecordFailure は AttemptLimiter を実装します。
func (l *MemoryLimiter) RecordFailure(_ context.Context, key string) (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.now()
	state, ok := l.attempts[key]
	if !ok {
		l.inserts++
		if l.inserts >= limiterSweepInterval {
			l.sweep(now)
		}
	}
	if !ok || now.Sub(state.firstAttempt) > l.policy.Window {
		state = &attemptState{firstAttempt: now, lockedUntil: lockedUntil(state)}
		l.attempts[key] = state
	}

	state.count++
	if state.count >= l.policy.MaxAttempts {
		// ロック解除後は新しい期間として数え直す
		state.lockedUntil = now.Add(l.policy.Lock)
		state.count = 0
		state.firstAttempt = time.Time{}
		return 0, nil
	}

	return l.policy.MaxAttempts - state.count, nil
}

// Reset は AttemptLimiter を実装します。
func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	delete(l.attempts, key)
	return nil
}

// sweep は期限切れの状態を削除します。呼び出し側でロックを保持していること。
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, state := range l.attempts {
		if state.expired(now, l.policy.Window) {
			delete(l.attempts, key)
		}
	}
	l.inserts = 0
}

func lockedUntil(state *attemptState) time.Time {
	if state == nil {
		return time.Time{}
	}
	return state.lockedUntil
}
