package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/ports"
)

// --- In-Memory Order Repo ---

type inMemoryOrderRepo struct {
	mu     sync.Mutex
	orders map[string]domain.Order
	// gate, when set, blocks UpdateStatus until it is closed.
	gate chan struct{}
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[string]domain.Order)}
}

func (r *inMemoryOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[o.OrderNum]; exists {
		return fmt.Errorf("order %s already exists", o.OrderNum)
	}
	r.orders[o.OrderNum] = *o
	return nil
}

func (r *inMemoryOrderRepo) GetByOrderNum(ctx context.Context, orderNum string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderNum]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *inMemoryOrderRepo) UpdateStatus(ctx context.Context, orderNum string, status domain.OrderStatus, info *string, at time.Time) (*domain.Transition, error) {
	if gate := r.gateChan(); gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderNum]
	if !ok {
		return nil, nil
	}
	t := &domain.Transition{OrderNum: orderNum, From: o.Status, To: status, Confirmed: o.ConfirmedAt != nil}
	o.Status = status
	if info != nil {
		o.Info = info
	}
	o.UpdatedAt = at
	r.orders[orderNum] = o
	return t, nil
}

func (r *inMemoryOrderRepo) MarkConfirmed(ctx context.Context, orderNum string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderNum]
	if !ok || o.ConfirmedAt != nil {
		return nil
	}
	o.ConfirmedAt = &at
	r.orders[orderNum] = o
	return nil
}

func (r *inMemoryOrderRepo) hold() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = make(chan struct{})
}

func (r *inMemoryOrderRepo) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gate != nil {
		close(r.gate)
		r.gate = nil
	}
}

func (r *inMemoryOrderRepo) gateChan() chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gate
}

func (r *inMemoryOrderRepo) status(orderNum string) domain.OrderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[orderNum].Status
}

// --- In-Memory Rate Snapshot Repo ---

type inMemoryRateRepo struct {
	mu        sync.Mutex
	snapshots []domain.RateSnapshot
}

func newInMemoryRateRepo() *inMemoryRateRepo {
	return &inMemoryRateRepo{}
}

func (r *inMemoryRateRepo) Insert(ctx context.Context, s domain.RateSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	sort.SliceStable(r.snapshots, func(i, j int) bool {
		return r.snapshots[i].Timestamp.Before(r.snapshots[j].Timestamp)
	})
	return nil
}

func (r *inMemoryRateRepo) Latest(ctx context.Context) (*domain.RateSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil, nil
	}
	s := r.snapshots[len(r.snapshots)-1]
	return &s, nil
}

func (r *inMemoryRateRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

// --- Recording Notifier ---

type recordingNotifier struct {
	mu   sync.Mutex
	sent []ports.OrderConfirmation
}

func (n *recordingNotifier) SendConfirmation(ctx context.Context, c ports.OrderConfirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, c)
	return nil
}

func (n *recordingNotifier) confirmations() []ports.OrderConfirmation {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ports.OrderConfirmation, len(n.sent))
	copy(out, n.sent)
	return out
}
