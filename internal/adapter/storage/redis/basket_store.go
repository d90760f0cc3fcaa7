package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// BasketStore implements ports.BasketStore. Each session basket is one
// string key whose TTL is refreshed on every save.
type BasketStore struct {
	client goredis.UniversalClient
	prefix string
}

// NewBasketStore creates a Redis-backed basket store.
func NewBasketStore(client goredis.UniversalClient) *BasketStore {
	return &BasketStore{
		client: client,
		prefix: "basket:",
	}
}

// Load returns the serialized basket, or nil, nil when none is stored.
func (s *BasketStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis basket get: %w", err)
	}
	return val, nil
}

// Save stores the serialized basket with ttl.
func (s *BasketStore) Save(ctx context.Context, sessionID string, data []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+sessionID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis basket set: %w", err)
	}
	return nil
}

// Delete removes the session basket.
func (s *BasketStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.prefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis basket del: %w", err)
	}
	return nil
}
