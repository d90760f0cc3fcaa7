package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/ports"

	"github.com/rs/zerolog"
)

// EventHandler applies one webhook event.
type EventHandler interface {
	Handle(ctx context.Context, event domain.WebhookEvent) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event domain.WebhookEvent) error

func (f EventHandlerFunc) Handle(ctx context.Context, event domain.WebhookEvent) error {
	return f(ctx, event)
}

// WebhookConsumer is the single worker draining an EventQueue. Events are
// dispatched one at a time in queue order.
type WebhookConsumer struct {
	queue          *EventQueue
	handlers       map[string]EventHandler
	dedup          ports.EventDeduplicator
	dedupTTL       time.Duration
	handlerTimeout time.Duration
	log            zerolog.Logger

	started atomic.Bool
	done    chan struct{}
}

// NewWebhookConsumer creates a consumer with a fixed dispatch table. dedup
// may be nil.
func NewWebhookConsumer(
	queue *EventQueue,
	handlers map[string]EventHandler,
	dedup ports.EventDeduplicator,
	dedupTTL time.Duration,
	handlerTimeout time.Duration,
	log zerolog.Logger,
) *WebhookConsumer {
	table := make(map[string]EventHandler, len(handlers))
	for eventType, h := range handlers {
		table[eventType] = h
	}
	return &WebhookConsumer{
		queue:          queue,
		handlers:       table,
		dedup:          dedup,
		dedupTTL:       dedupTTL,
		handlerTimeout: handlerTimeout,
		log:            log,
		done:           make(chan struct{}),
	}
}

// Start launches the worker goroutine. Handler contexts derive from ctx.
// Calling Start more than once has no effect.
func (c *WebhookConsumer) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	c.log.Info().Int("capacity", c.queue.Cap()).Int("handlers", len(c.handlers)).Msg("webhook consumer started")

	go func() {
		defer close(c.done)
		for event := range c.queue.events() {
			c.dispatch(ctx, event)
		}
		c.log.Info().Msg("webhook consumer drained")
	}()
}

// Shutdown closes the queue to new events and waits until everything
// already accepted has been dispatched, or ctx expires.
func (c *WebhookConsumer) Shutdown(ctx context.Context) error {
	c.queue.Close()
	if !c.started.Load() {
		return nil
	}

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		c.log.Warn().Int("pending", c.queue.Len()).Msg("webhook consumer shutdown timed out")
		return ctx.Err()
	}
}

func (c *WebhookConsumer) dispatch(parent context.Context, event domain.WebhookEvent) {
	log := c.log.With().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Uint64("seq", event.Sequence).
		Logger()

	handler, ok := c.handlers[event.Type]
	if !ok {
		log.Info().Msg("webhook: no handler for event type, discarding")
		return
	}

	ctx := parent
	if c.handlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, c.handlerTimeout)
		defer cancel()
	}

	if c.seen(ctx, log, event.ID) {
		log.Info().Msg("webhook: event already processed, skipping")
		return
	}

	start := time.Now()
	if err := c.invoke(ctx, handler, event); err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("webhook: handler failed")
		return
	}
	log.Info().Dur("duration", time.Since(start)).Msg("webhook: event processed")

	if c.dedup != nil && event.ID != "" {
		if err := c.dedup.MarkProcessed(ctx, event.ID, c.dedupTTL); err != nil {
			log.Warn().Err(err).Msg("webhook: failed to record processed event")
		}
	}
}

// invoke runs the handler and turns a panic into an error.
func (c *WebhookConsumer) invoke(ctx context.Context, handler EventHandler, event domain.WebhookEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

func (c *WebhookConsumer) seen(ctx context.Context, log zerolog.Logger, eventID string) bool {
	if c.dedup == nil || eventID == "" {
		return false
	}
	processed, err := c.dedup.IsProcessed(ctx, eventID)
	if err != nil {
		log.Warn().Err(err).Msg("webhook: dedup lookup failed, dispatching anyway")
		return false
	}
	return processed
}
