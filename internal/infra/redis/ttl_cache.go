package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-master-service/internal/domain"
)

// keyPrefix namespaces the view cache so ClearAll never touches keys owned by
// other users of the same Redis database.
const keyPrefix = "quizmaster:view:"

// TTLCache is the Redis-backed implementation of cache.Store. Expiry is
// delegated to Redis itself, so an entry at or past its TTL is simply absent.
type TTLCache struct {
	client *redis.Client
}

func NewTTLCache(client *redis.Client) *TTLCache {
	return &TTLCache{client: client}
}

func (c *TTLCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return domain.ErrInvalidKey
	}
	return c.client.Set(ctx, keyPrefix+key, value, ttl).Err()
}

func (c *TTLCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, domain.ErrInvalidKey
	}
	value, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *TTLCache) ClearKey(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrInvalidKey
	}
	return c.client.Del(ctx, keyPrefix+key).Err()
}

func (c *TTLCache) ClearAll(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
