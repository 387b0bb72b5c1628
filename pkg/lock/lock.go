package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript releases the key only when still held by this owner.
const unlockScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end`

// Locker hands out Redis-backed advisory locks. The conflict detector uses
// one lock per datesheet so two detection passes over the same datesheet
// never interleave their clear-then-set rewrites.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker builds a Locker with the given lock TTL.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

// Lease is a held advisory lock.
type Lease struct {
	locker *Locker
	key    string
	owner  string
}

// Acquire attempts to take the lock once, without waiting. The second return
// is false when another holder owns the key.
func (l *Locker) Acquire(ctx context.Context, key string) (*Lease, bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.prefixed(key), owner, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &Lease{locker: l, key: l.prefixed(key), owner: owner}, true, nil
}

// Release frees the lock if this lease still owns it. Safe to call after the
// TTL has expired.
func (lease *Lease) Release(ctx context.Context) error {
	if lease == nil {
		return nil
	}
	if err := lease.locker.client.Eval(ctx, unlockScript, []string{lease.key}, lease.owner).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", lease.key, err)
	}
	return nil
}

func (l *Locker) prefixed(key string) string {
	return "lock:" + key
}
