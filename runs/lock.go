package runs

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/canvasflow/redis"
)

// Unlocker releases a held run lock.
type Unlocker interface {
	Release(ctx context.Context) error
}

// Locker grants at most one active run per workflow. TryLock returns
// (nil, nil) when the workflow already has a run.
type Locker interface {
	TryLock(ctx context.Context, workflowID string, ttl time.Duration) (Unlocker, error)
}

// MemoryLocker is an in-process Locker. The TTL is ignored; locks live
// until released.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]*memoryLock
}

// NewMemoryLocker creates an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]*memoryLock)}
}

func (l *MemoryLocker) TryLock(_ context.Context, workflowID string, _ time.Duration) (Unlocker, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[workflowID]; ok {
		return nil, nil
	}
	lk := &memoryLock{locker: l, key: workflowID}
	l.held[workflowID] = lk
	return lk, nil
}

type memoryLock struct {
	locker *MemoryLocker
	key    string
}

func (k *memoryLock) Release(_ context.Context) error {
	k.locker.mu.Lock()
	defer k.locker.mu.Unlock()
	if k.locker.held[k.key] == k {
		delete(k.locker.held, k.key)
	}
	return nil
}

// RedisLocker shares run locks between replicas.
type RedisLocker struct {
	locker *redis.Locker
}

// NewRedisLocker creates locks under "<key prefix>:run-lock:<workflow id>".
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{locker: redis.NewLocker(client, client.Key("run-lock"))}
}

func (l *RedisLocker) TryLock(ctx context.Context, workflowID string, ttl time.Duration) (Unlocker, error) {
	lk, err := l.locker.TryLock(ctx, workflowID, ttl)
	if err != nil || lk == nil {
		return nil, err
	}
	return lk, nil
}
