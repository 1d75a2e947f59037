// README: Leg estimate cache backed by Redis strings.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wayfarer/internal/maps"
	"wayfarer/internal/types"
)

const (
	legKeyPrefix = "enrich:leg:%s:%s:%s"
	// TTL for cached legs.
	DefaultCacheTTL = 7 * 24 * time.Hour
)

// Cache stores directions estimates by leg.
type Cache interface {
	Get(ctx context.Context, key string) (maps.Estimate, bool, error)
	Set(ctx context.Context, key string, est maps.Estimate) error
}

type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisCache(redis *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{redis: redis, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (maps.Estimate, bool, error) {
	val, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return maps.Estimate{}, false, nil
	}
	if err != nil {
		return maps.Estimate{}, false, err
	}
	var est maps.Estimate
	if err := json.Unmarshal(val, &est); err != nil {
		return maps.Estimate{}, false, err
	}
	return est, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, est maps.Estimate) error {
	b, err := json.Marshal(est)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, key, b, c.ttl).Err()
}

func legKey(from, to types.Point, walk bool) string {
	mode := "transit"
	if walk {
		mode = "walk"
	}
	return fmt.Sprintf(legKeyPrefix, mode, coordKey(from), coordKey(to))
}

// coordKey rounds to ~10 m so near-identical stops share entries.
func coordKey(p types.Point) string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lng)
}
