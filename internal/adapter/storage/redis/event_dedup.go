package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// EventDedup implements ports.EventDeduplicator with one key per
// processed webhook event id.
type EventDedup struct {
	client goredis.UniversalClient
	prefix string
}

// NewEventDedup creates a Redis-backed event deduplicator.
func NewEventDedup(client goredis.UniversalClient) *EventDedup {
	return &EventDedup{
		client: client,
		prefix: "webhook:event:",
	}
}

// IsProcessed reports whether eventID was marked processed.
func (d *EventDedup) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis event exists: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records eventID for ttl. The first mark wins; later marks
// do not extend the TTL.
func (d *EventDedup) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) error {
	err := d.client.SetArgs(ctx, d.prefix+eventID, time.Now().Unix(), goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis event mark: %w", err)
	}
	return nil
}
