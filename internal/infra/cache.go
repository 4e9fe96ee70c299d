package infra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisCache stores JSON read models in Redis behind a circuit breaker.
// Every failure degrades to a cache miss.
type RedisCache struct {
	rdb *redis.Client
	cb  *CircuitBreaker
}

func NewRedisCache(rdb *redis.Client, cb *CircuitBreaker) *RedisCache {
	return &RedisCache{rdb: rdb, cb: cb}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) bool {
	var raw []byte
	err := c.cb.Execute(func() error {
		b, err := c.rdb.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil
		}
		raw = b
		return err
	})
	if err != nil || raw == nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.cb.Execute(func() error {
		return c.rdb.Set(ctx, key, raw, ttl).Err()
	}); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache: set failed")
	}
}

// InvalidatePrefix deletes every key starting with prefix using SCAN, so
// large keyspaces are walked incrementally.
func (c *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) {
	err := c.cb.Execute(func() error {
		iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(keys) == 0 {
			return nil
		}
		return c.rdb.Del(ctx, keys...).Err()
	})
	if err != nil {
		log.Warn().Err(err).Str("prefix", prefix).Msg("cache: invalidation failed")
	}
}
