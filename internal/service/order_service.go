package service

import (
	"context"
	"fmt"
	"time"

	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/ports"
	"storefront-checkout/pkg/apperror"

	"github.com/rs/zerolog"
)

// OrderService implements ports.OrderService.
type OrderService struct {
	repo ports.OrderRepository
	now  func() time.Time
	log  zerolog.Logger
}

// NewOrderService creates an order service.
func NewOrderService(repo ports.OrderRepository, log zerolog.Logger) *OrderService {
	return &OrderService{repo: repo, now: time.Now, log: log}
}

// Update sets the order status, and info when non-nil, in one atomic
// write. An unknown order number is logged and ignored.
func (s *OrderService) Update(ctx context.Context, orderNum string, status domain.OrderStatus, info *string) (*domain.Transition, error) {
	if !status.IsValid() {
		return nil, apperror.Validation(fmt.Sprintf("Unknown order status %q", status))
	}

	t, err := s.repo.UpdateStatus(ctx, orderNum, status, info, s.now().UTC())
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("updating order %s: %w", orderNum, err))
	}
	if t == nil {
		s.log.Warn().Str("order_num", orderNum).Str("status", string(status)).Msg("order: no order matches, update ignored")
		return nil, nil
	}

	evt := s.log.Info()
	if !t.Changed() {
		evt = s.log.Debug()
	}
	evt.Str("order_num", orderNum).
		Str("from", string(t.From)).
		Str("to", string(t.To)).
		Bool("changed", t.Changed()).
		Msg("order: status updated")
	return t, nil
}

// Get returns the order or ORD_001.
func (s *OrderService) Get(ctx context.Context, orderNum string) (*domain.Order, error) {
	order, err := s.repo.GetByOrderNum(ctx, orderNum)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("loading order %s: %w", orderNum, err))
	}
	if order == nil {
		return nil, apperror.ErrOrderNotFound()
	}
	return order, nil
}

// MarkConfirmed records that the buyer's confirmation has been delivered.
func (s *OrderService) MarkConfirmed(ctx context.Context, orderNum string) error {
	if err := s.repo.MarkConfirmed(ctx, orderNum, s.now().UTC()); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("confirming order %s: %w", orderNum, err))
	}
	return nil
}
