package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const PageFragmentPrefix = "page:fragment:"

// PageCache keeps rendered page fragments in redis so every instance shares them.
type PageCache struct {
	Client *redis.Client
}

func NewPageCache(client *redis.Client) *PageCache {
	return &PageCache{Client: client}
}

func (c *PageCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.Client.Get(ctx, PageFragmentPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *PageCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.Client.Set(ctx, PageFragmentPrefix+key, value, ttl).Err()
}

func (c *PageCache) Delete(ctx context.Context, key string) error {
	return c.Client.Del(ctx, PageFragmentPrefix+key).Err()
}

// Clear removes every fragment key. SCAN keeps redis responsive on large keyspaces.
func (c *PageCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.Client.Scan(ctx, cursor, PageFragmentPrefix+"*", 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err = c.Client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
