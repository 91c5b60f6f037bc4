package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgredis "berthops/pkg/redis"
)

// Locker 按键单飞：同一键同一时刻只有一个持有者，后来者等待前者结束后再执行
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// lockBackend 分布式锁后端（Redis SET NX）
type lockBackend interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

const lockRetryInterval = 200 * time.Millisecond

// NewLocker Redis 可用时使用分布式锁，否则退化为进程内互斥
func NewLocker(rdb *pkgredis.Client, ttl time.Duration, logger *zap.Logger) Locker {
	if rdb == nil {
		return NewLocalLocker()
	}
	return &redisLocker{backend: rdb, ttl: ttl, logger: logger}
}

// ── Redis 分布式锁 ──

type redisLocker struct {
	backend lockBackend
	ttl     time.Duration
	logger  *zap.Logger
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		token, err := l.backend.AcquireLock(ctx, key, l.ttl)
		if err == nil {
			return func() {
				// 释放不随调用方 ctx 取消
				if err := l.backend.ReleaseLock(context.Background(), key, token); err != nil {
					l.logger.Warn("释放锁失败", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if !errors.Is(err, pkgredis.ErrLockHeld) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ── 进程内互斥 ──

type localLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedMutex
}

type keyedMutex struct {
	mu   sync.Mutex
	refs int
}

// NewLocalLocker 进程内按键互斥
func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[string]*keyedMutex)}
}

func (l *localLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	km, ok := l.locks[key]
	if !ok {
		km = &keyedMutex{}
		l.locks[key] = km
	}
	km.refs++
	l.mu.Unlock()

	km.mu.Lock()
	return func() {
		km.mu.Unlock()
		l.mu.Lock()
		km.refs--
		if km.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}, nil
}
