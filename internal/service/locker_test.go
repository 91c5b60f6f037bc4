package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	pkgredis "berthops/pkg/redis"
)

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "auto_flag:2026-03-10:day")
			if err != nil {
				t.Errorf("Lock 失败: %v", err)
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			unlock()
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("同一键同时只应有一个持有者，实际峰值 %d", peak)
	}
	if n := len(l.(*localLocker).locks); n != 0 {
		t.Errorf("释放后不应残留锁条目，实际 %d", n)
	}
}

func TestLocalLocker_DifferentKeysIndependent(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlockA, _ := l.Lock(ctx, "performance:2026-03-10")
	done := make(chan struct{})
	go func() {
		unlockB, _ := l.Lock(ctx, "performance:2026-03-11")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("不同键不应互相阻塞")
	}
	unlockA()
}

// fakeLockBackend 前 busy 次返回占用，之后成功
type fakeLockBackend struct {
	busy     int
	attempts int
	released []string
	err      error
}

func (f *fakeLockBackend) AcquireLock(_ context.Context, key string, _ time.Duration) (string, error) {
	f.attempts++
	if f.err != nil {
		return "", f.err
	}
	if f.attempts <= f.busy {
		return "", pkgredis.ErrLockHeld
	}
	return "token-" + key, nil
}

func (f *fakeLockBackend) ReleaseLock(_ context.Context, _ string, token string) error {
	f.released = append(f.released, token)
	return nil
}

func TestRedisLocker_RetriesUntilFree(t *testing.T) {
	backend := &fakeLockBackend{busy: 2}
	l := &redisLocker{backend: backend, ttl: time.Minute, logger: zap.NewNop()}

	unlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("Lock 失败: %v", err)
	}
	if backend.attempts != 3 {
		t.Errorf("期望尝试 3 次，实际 %d", backend.attempts)
	}
	unlock()
	if len(backend.released) != 1 || backend.released[0] != "token-k" {
		t.Errorf("应以持有令牌释放，实际 %v", backend.released)
	}
}

func TestRedisLocker_ContextCancelled(t *testing.T) {
	backend := &fakeLockBackend{busy: 1 << 30}
	l := &redisLocker{backend: backend, ttl: time.Minute, logger: zap.NewNop()}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("期望 context.DeadlineExceeded，实际: %v", err)
	}
}

func TestRedisLocker_BackendError(t *testing.T) {
	boom := errors.New("连接被拒绝")
	l := &redisLocker{backend: &fakeLockBackend{err: boom}, ttl: time.Minute, logger: zap.NewNop()}

	if _, err := l.Lock(context.Background(), "k"); !errors.Is(err, boom) {
		t.Errorf("期望透传后端错误，实际: %v", err)
	}
}

func TestNewLocker_FallsBackWithoutRedis(t *testing.T) {
	if _, ok := NewLocker(nil, time.Minute, zap.NewNop()).(*localLocker); !ok {
		t.Error("未配置 Redis 时应使用进程内锁")
	}
}
