package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDedup_MarkAndCheck(t *testing.T) {
	mr, client := newTestClient(t)
	dedup := NewEventDedup(client)
	ctx := context.Background()

	seen, err := dedup.IsProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, dedup.MarkProcessed(ctx, "evt_1", time.Hour))
	seen, err = dedup.IsProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = dedup.IsProcessed(ctx, "evt_2")
	require.NoError(t, err)
	assert.False(t, seen, "ids are independent")

	assert.True(t, mr.Exists("webhook:event:evt_1"))
}

func TestEventDedup_SecondMarkKeepsTTL(t *testing.T) {
	mr, client := newTestClient(t)
	dedup := NewEventDedup(client)
	ctx := context.Background()

	require.NoError(t, dedup.MarkProcessed(ctx, "evt_1", time.Hour))
	mr.FastForward(30 * time.Minute)
	require.NoError(t, dedup.MarkProcessed(ctx, "evt_1", time.Hour))

	assert.Equal(t, 30*time.Minute, mr.TTL("webhook:event:evt_1"))
}

func TestEventDedup_Expires(t *testing.T) {
	mr, client := newTestClient(t)
	dedup := NewEventDedup(client)
	ctx := context.Background()

	require.NoError(t, dedup.MarkProcessed(ctx, "evt_1", time.Minute))
	mr.FastForward(2 * time.Minute)

	seen, err := dedup.IsProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestEventDedup_Errors(t *testing.T) {
	mr, client := newTestClient(t)
	dedup := NewEventDedup(client)
	mr.Close()

	_, err := dedup.IsProcessed(context.Background(), "evt_1")
	assert.Error(t, err)
	assert.Error(t, dedup.MarkProcessed(context.Background(), "evt_1", time.Minute))
}
