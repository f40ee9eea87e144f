package rdx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned by Lock when another holder owns the key.
var ErrLockHeld = errors.New("lock held by another request")

// releaseScript deletes the key only if it still carries our token, so a
// holder whose TTL lapsed cannot free a lock someone else now owns.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived SETNX locks.
type Locker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewLocker(client *redis.Client, prefix string, ttl time.Duration) *Locker {
	return &Locker{client: client, prefix: prefix, ttl: ttl}
}

// Lock acquires prefix+key. The returned func releases it and is safe to
// defer. If the key is already held ErrLockHeld is returned.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	full := l.prefix + key

	acquired, err := l.client.SetNX(ctx, full, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", full, err)
	}
	if !acquired {
		return nil, ErrLockHeld
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{full}, token).Err()
	}, nil
}
