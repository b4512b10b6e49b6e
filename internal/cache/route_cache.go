package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"divorcerisk/internal/model"

	"github.com/redis/go-redis/v9"
)

// RouteCache handles Redis operations for semantic router batch results
type RouteCache interface {
	Get(ctx context.Context, key string) ([]model.RouteResult, error)
	Set(ctx context.Context, key string, results []model.RouteResult) error
}

type routeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRouteCache creates a new route cache
func NewRouteCache(client *redis.Client, ttl time.Duration) RouteCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &routeCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *routeCache) key(key string) string {
	return fmt.Sprintf("route:%s", key)
}

// Get returns nil, nil on a miss
func (c *routeCache) Get(ctx context.Context, key string) ([]model.RouteResult, error) {
	data, err := c.client.Get(ctx, c.key(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var results []model.RouteResult
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *routeCache) Set(ctx context.Context, key string, results []model.RouteResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
}
