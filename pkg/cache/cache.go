package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs
const (
	TTLResults    = 30 * time.Second // results JSON changes on every analyze/edit
	TTLInspection = 2 * time.Minute  // inspection detail
	TTLDefault    = 5 * time.Minute
)

// Cache key prefixes
const (
	PrefixResults    = "results:"
	PrefixInspection = "inspection:"
)

// Service Redis cache service interface
type Service interface {
	// Generic operations
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Inspection results cache
	GetResults(ctx context.Context, inspectionID string) ([]byte, error)
	SetResults(ctx context.Context, inspectionID string, data interface{}) error
	InvalidateResults(ctx context.Context, inspectionID string) error

	// Utilities
	IsAvailable() bool
	Ping(ctx context.Context) error
}

// redisCache Redis-backed cache implementation
type redisCache struct {
	client *redis.Client
}

// NewService creates a new cache service
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

// IsAvailable reports whether Redis is connected
func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

// Ping tests the Redis connection
func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// Get reads a value from cache
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return fmt.Errorf("redis not available")
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set writes a value to cache
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // no Redis, skip silently
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes cache entries
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCache) resultsKey(inspectionID string) string {
	return PrefixResults + inspectionID
}

// GetResults reads the cached results JSON for an inspection
func (c *redisCache) GetResults(ctx context.Context, inspectionID string) ([]byte, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis not available")
	}
	return c.client.Get(ctx, c.resultsKey(inspectionID)).Bytes()
}

// SetResults caches the results JSON for an inspection
func (c *redisCache) SetResults(ctx context.Context, inspectionID string, data interface{}) error {
	if c.client == nil {
		return nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.resultsKey(inspectionID), jsonData, TTLResults).Err()
}

// InvalidateResults drops the cached results for an inspection
func (c *redisCache) InvalidateResults(ctx context.Context, inspectionID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.resultsKey(inspectionID)).Err()
}
