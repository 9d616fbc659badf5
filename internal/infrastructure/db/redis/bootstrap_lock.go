package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockPrefix     = "lock:"
	defaultLockTTL = 30 * time.Second
)

// releaseScript deletes the lock only while it still carries our token, so a
// holder whose lease expired cannot release a lock taken over by another
// process.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// BootstrapLock is a lease-based mutual exclusion lock shared by every
// process pointed at the same Redis.
// Key format: lock:<key>
type BootstrapLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBootstrapLock creates a BootstrapLock. If ttl <= 0, defaultLockTTL is used.
func NewBootstrapLock(client *redis.Client, ttl time.Duration) *BootstrapLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &BootstrapLock{client: client, ttl: ttl}
}

// TryAcquire takes the lock without waiting. acquired is false when another
// holder owns it.
func (l *BootstrapLock) TryAcquire(ctx context.Context, key string) (func(context.Context) error, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(key), token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key(key)}, token).Err(); err != nil {
			return fmt.Errorf("release %s: %w", key, err)
		}
		return nil
	}
	return release, true, nil
}

func (l *BootstrapLock) key(key string) string {
	return lockPrefix + key
}
