package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so
// an expired lock taken over by another holder is left alone.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker takes named locks with a TTL.
type Locker struct {
	client *Client
	prefix string
}

// NewLocker creates a Locker whose keys are "<prefix>:<name>".
func NewLocker(client *Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// Lock is a held lock.
type Lock struct {
	locker *Locker
	key    string
	token  string
}

// TryLock takes name for ttl. It returns (nil, nil) when another holder
// has it.
func (l *Locker) TryLock(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	key := l.prefix + ":" + name
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl)
	if err != nil {
		return nil, fmt.Errorf("redis lock %q: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	return &Lock{locker: l, key: key, token: token}, nil
}

// Release frees the lock if it is still ours.
func (k *Lock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, k.locker.client.rdb, []string{k.key}, k.token).Err(); err != nil && !IsNil(err) {
		return fmt.Errorf("redis unlock %q: %w", k.key, err)
	}
	return nil
}
