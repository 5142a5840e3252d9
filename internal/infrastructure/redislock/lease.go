package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/walleto-api/internal/pkg/id"
)

// releaseLua deletes the key only while it still holds the caller's owner token,
// so a lease that expired and was taken over is never released by the old holder.
var releaseLua = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease is a single-holder lock with a bounded lifetime.
type Lease struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client, prefix string) *Lease {
	return &Lease{client: client, prefix: prefix}
}

// NewFromURL parses a redis:// URL and verifies the connection.
func NewFromURL(ctx context.Context, url, prefix string) (*Lease, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(client, prefix), nil
}

// TryAcquire takes key for ttl. ok is false when another holder owns it.
// The returned release is a no-op when ok is false.
func (l *Lease) TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error) {
	owner := id.New()
	full := l.prefix + key
	ok, err = l.client.SetNX(ctx, full, owner, ttl).Result()
	if err != nil {
		return func(context.Context) error { return nil }, false, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return func(context.Context) error { return nil }, false, nil
	}
	return func(ctx context.Context) error {
		err := releaseLua.Run(ctx, l.client, []string{full}, owner).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("release lease %s: %w", key, err)
		}
		return nil
	}, true, nil
}

func (l *Lease) Close() error {
	return l.client.Close()
}
