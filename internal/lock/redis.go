package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was taken by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process that talks to the same
// Redis. A lock expires after TTL even if its holder dies.
type RedisLocker struct {
	c     *redis.Client
	ttl   time.Duration
	retry time.Duration
}

// NewRedisLocker connects to addr. ttl bounds how long a crashed holder can
// block a key; retry is the polling interval while waiting.
func NewRedisLocker(addr string, ttl, retry time.Duration) *RedisLocker {
	return NewRedisLockerWithClient(redis.NewClient(&redis.Options{Addr: addr}), ttl, retry)
}

// NewRedisLockerWithClient wraps an existing client.
func NewRedisLockerWithClient(c *redis.Client, ttl, retry time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	return &RedisLocker{c: c, ttl: ttl, retry: retry}
}

// Acquire polls SET NX until the key is taken or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.c.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Wrap(err, "redis lock")
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "redis lock wait")
		case <-ticker.C:
		}
	}

	return func() {
		// Release must succeed even if the caller's ctx is already cancelled.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, l.c, []string{key}, token).Err()
	}, nil
}

// Ping checks connectivity.
func (l *RedisLocker) Ping(ctx context.Context) error {
	if err := l.c.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}

// Close closes the underlying client.
func (l *RedisLocker) Close() error {
	return l.c.Close()
}
