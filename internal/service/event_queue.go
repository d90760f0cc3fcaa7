package service

import (
	"sync"
	"sync/atomic"
	"time"

	"storefront-checkout/internal/core/domain"
	"storefront-checkout/pkg/apperror"
)

// EventQueue is a bounded FIFO between webhook ingress and the consumer.
// Publish never blocks: a full queue is reported to the caller so the
// gateway can retry the delivery later.
type EventQueue struct {
	mu     sync.RWMutex
	ch     chan domain.WebhookEvent
	closed bool
	seq    atomic.Uint64
	now    func() time.Time
}

// NewEventQueue creates a queue that holds up to capacity events.
func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventQueue{
		ch:  make(chan domain.WebhookEvent, capacity),
		now: time.Now,
	}
}

// Publish stamps event with its sequence number and receive time and
// enqueues it.
func (q *EventQueue) Publish(event domain.WebhookEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return apperror.ErrQueueClosed()
	}

	event.Sequence = q.seq.Add(1)
	event.ReceivedAt = q.now().UTC()

	select {
	case q.ch <- event:
		return nil
	default:
		return apperror.ErrQueueFull()
	}
}

// Close stops accepting events. Events already queued stay readable.
func (q *EventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *EventQueue) Cap() int {
	return cap(q.ch)
}

func (q *EventQueue) events() <-chan domain.WebhookEvent {
	return q.ch
}
