package runs

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/canvasflow/redis"
)

// ResultCache keeps finished runs for fast lookups. Load returns
// (nil, nil) for unknown runs.
type ResultCache interface {
	Load(ctx context.Context, runID string) (*Run, error)
	Save(ctx context.Context, run *Run, ttl time.Duration) error
}

// MemoryCache is an in-process ResultCache with lazy expiry.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	run     Run
	expires time.Time
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry), now: time.Now}
}

func (c *MemoryCache) Load(_ context.Context, runID string) (*Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[runID]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, runID)
		return nil, nil
	}
	run := e.run
	return &run, nil
}

func (c *MemoryCache) Save(_ context.Context, run *Run, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cacheEntry{run: *run}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[run.ID] = e
	return nil
}

// RedisCache stores runs as JSON under "<key prefix>:run".
type RedisCache struct {
	store *redis.TypedStore[Run]
}

// NewRedisCache creates a cache on client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{store: redis.NewTypedStore[Run](client, client.Key("run"))}
}

func (c *RedisCache) Load(ctx context.Context, runID string) (*Run, error) {
	return c.store.Load(ctx, runID)
}

func (c *RedisCache) Save(ctx context.Context, run *Run, ttl time.Duration) error {
	return c.store.Save(ctx, run.ID, run, ttl)
}
