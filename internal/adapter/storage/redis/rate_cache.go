package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-checkout/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// RateCache implements ports.RateCache: the latest snapshot as JSON under
// one key.
type RateCache struct {
	client goredis.UniversalClient
	key    string
}

// NewRateCache creates a Redis-backed rate cache.
func NewRateCache(client goredis.UniversalClient) *RateCache {
	return &RateCache{
		client: client,
		key:    "forex:latest",
	}
}

// Get returns the cached snapshot, or nil, nil on a miss.
func (c *RateCache) Get(ctx context.Context) (*domain.RateSnapshot, error) {
	val, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis rate cache get: %w", err)
	}

	var s domain.RateSnapshot
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("decode cached rates: %w", err)
	}
	return &s, nil
}

// Set caches snapshot for ttl. A non-positive ttl is a no-op.
func (c *RateCache) Set(ctx context.Context, snapshot domain.RateSnapshot, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	val, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode rates: %w", err)
	}
	if err := c.client.Set(ctx, c.key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis rate cache set: %w", err)
	}
	return nil
}
