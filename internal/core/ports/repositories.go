package ports

import (
	"context"
	"time"

	"storefront-checkout/internal/core/domain"
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	// GetByOrderNum returns nil, nil when no order matches.
	GetByOrderNum(ctx context.Context, orderNum string) (*domain.Order, error)
	// UpdateStatus atomically sets status (and info, when non-nil) and
	// returns the transition applied. It returns nil, nil when no order
	// matches.
	UpdateStatus(ctx context.Context, orderNum string, status domain.OrderStatus, info *string, at time.Time) (*domain.Transition, error)
	// MarkConfirmed records the first confirmation delivery. Later calls
	// keep the original time.
	MarkConfirmed(ctx context.Context, orderNum string, at time.Time) error
}

// RateSnapshotRepository persists exchange rate snapshots. Snapshots are
// only ever inserted; readers select the newest by timestamp.
type RateSnapshotRepository interface {
	Insert(ctx context.Context, snapshot domain.RateSnapshot) error
	// Latest returns nil, nil when no snapshot has been stored.
	Latest(ctx context.Context) (*domain.RateSnapshot, error)
}
