package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-checkout/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Create inserts a new order. Amounts travel as decimal strings.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}

	query := `INSERT INTO orders (id, order_num, status, info, amount, currency, amount_base, base_currency,
		email, address, items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7::numeric, $8, $9, $10, $11, $12, $13)`

	_, err = r.pool.Exec(ctx, query,
		o.ID, o.OrderNum, string(o.Status), o.Info,
		o.Amount.String(), o.Currency, o.AmountBase.String(), o.BaseCurrency,
		o.Email, o.Address, items, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByOrderNum fetches an order by its order number.
func (r *OrderRepo) GetByOrderNum(ctx context.Context, orderNum string) (*domain.Order, error) {
	query := `SELECT id, order_num, status, info, amount::text, currency, amount_base::text, base_currency,
		email, address, items, created_at, updated_at, confirmed_at
		FROM orders WHERE order_num = $1`

	var (
		o                  domain.Order
		status             string
		amount, amountBase string
		items              []byte
	)
	err := r.pool.QueryRow(ctx, query, orderNum).Scan(
		&o.ID, &o.OrderNum, &status, &o.Info, &amount, &o.Currency, &amountBase, &o.BaseCurrency,
		&o.Email, &o.Address, &items, &o.CreatedAt, &o.UpdatedAt, &o.ConfirmedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by number: %w", err)
	}

	o.Status = domain.OrderStatus(status)
	if o.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse order amount: %w", err)
	}
	if o.AmountBase, err = decimal.NewFromString(amountBase); err != nil {
		return nil, fmt.Errorf("parse order base amount: %w", err)
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode order items: %w", err)
		}
	}
	return &o, nil
}

// UpdateStatus sets status, and info when non-nil, in one statement. The
// row lock in the subquery makes the returned previous status exact under
// concurrent updates.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderNum string, status domain.OrderStatus, info *string, at time.Time) (*domain.Transition, error) {
	query := `UPDATE orders o
		SET status = $2, info = COALESCE($3::text, o.info), updated_at = $4
		FROM (SELECT id, status, confirmed_at FROM orders WHERE order_num = $1 FOR UPDATE) prev
		WHERE o.id = prev.id
		RETURNING prev.status, prev.confirmed_at IS NOT NULL`

	var (
		prev      string
		confirmed bool
	)
	err := r.pool.QueryRow(ctx, query, orderNum, string(status), info, at).Scan(&prev, &confirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	return &domain.Transition{
		OrderNum:  orderNum,
		From:      domain.OrderStatus(prev),
		To:        status,
		Confirmed: confirmed,
	}, nil
}

// MarkConfirmed stamps confirmed_at unless it is already set.
func (r *OrderRepo) MarkConfirmed(ctx context.Context, orderNum string, at time.Time) error {
	query := `UPDATE orders SET confirmed_at = $2 WHERE order_num = $1 AND confirmed_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, orderNum, at); err != nil {
		return fmt.Errorf("mark order confirmed: %w", err)
	}
	return nil
}
