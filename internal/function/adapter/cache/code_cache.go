package cache

import (
	"context"
	"errors"
	"time"

	"docbase/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "docbase:function:code:"

// RedisCodeCache keeps function source next to the process so hot functions
// skip the core database on invoke. Failures only log; the repository stays
// the source of truth.
type RedisCodeCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// NewRedisCodeCache creates a redis-backed function code cache
func NewRedisCodeCache(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisCodeCache {
	return &RedisCodeCache{
		client: client,
		ttl:    ttl,
		log:    log.WithComponent("function-cache"),
	}
}

func (c *RedisCodeCache) Get(ctx context.Context, name string) (string, bool) {
	code, err := c.client.Get(ctx, keyPrefix+name).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnf("cache read failed for %s: %v", name, err)
		}
		return "", false
	}
	return code, true
}

func (c *RedisCodeCache) Set(ctx context.Context, name, code string) {
	if err := c.client.Set(ctx, keyPrefix+name, code, c.ttl).Err(); err != nil {
		c.log.Warnf("cache write failed for %s: %v", name, err)
	}
}

func (c *RedisCodeCache) Invalidate(ctx context.Context, name string) {
	if err := c.client.Del(ctx, keyPrefix+name).Err(); err != nil {
		c.log.Warnf("cache invalidation failed for %s: %v", name, err)
	}
}

// NoopCodeCache is used when no redis address is configured.
type NoopCodeCache struct{}

func (NoopCodeCache) Get(ctx context.Context, name string) (string, bool) { return "", false }
func (NoopCodeCache) Set(ctx context.Context, name, code string)          {}
func (NoopCodeCache) Invalidate(ctx context.Context, name string)         {}
