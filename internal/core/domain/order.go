package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusInProgress        OrderStatus = "IN_PROGRESS"
	OrderStatusPendingPayment    OrderStatus = "PENDING_PAYMENT"
	OrderStatusProcessingPayment OrderStatus = "PROCESSING_PAYMENT"
	OrderStatusPaid              OrderStatus = "PAID"
	OrderStatusPaymentFailed     OrderStatus = "PAYMENT_FAILED"
	OrderStatusPreparing         OrderStatus = "PREPARING"
	OrderStatusPendingShipping   OrderStatus = "PENDING_SHIPPING"
	OrderStatusInTransit         OrderStatus = "IN_TRANSIT"
	OrderStatusDelivered         OrderStatus = "DELIVERED"
	OrderStatusCompleted         OrderStatus = "COMPLETED"
	OrderStatusReturnRequested   OrderStatus = "RETURN_REQUESTED"
	OrderStatusReturnApproved    OrderStatus = "RETURN_APPROVED"
	OrderStatusReturnDenied      OrderStatus = "RETURN_DENIED"
	OrderStatusReturnInTransit   OrderStatus = "RETURN_IN_TRANSIT"
	OrderStatusReturned          OrderStatus = "RETURNED"
	OrderStatusVoid              OrderStatus = "VOID"
	OrderStatusCancelled         OrderStatus = "CANCELLED"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusInProgress:        {},
	OrderStatusPendingPayment:    {},
	OrderStatusProcessingPayment: {},
	OrderStatusPaid:              {},
	OrderStatusPaymentFailed:     {},
	OrderStatusPreparing:         {},
	OrderStatusPendingShipping:   {},
	OrderStatusInTransit:         {},
	OrderStatusDelivered:         {},
	OrderStatusCompleted:         {},
	OrderStatusReturnRequested:   {},
	OrderStatusReturnApproved:    {},
	OrderStatusReturnDenied:      {},
	OrderStatusReturnInTransit:   {},
	OrderStatusReturned:          {},
	OrderStatusVoid:              {},
	OrderStatusCancelled:         {},
}

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// ParseOrderStatus parses a status name case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	return status, status.IsValid()
}

// OrderItem is a priced line copied from the basket at checkout.
type OrderItem struct {
	SKU          string          `json:"sku,omitempty"`
	Description  string          `json:"description"`
	Currency     string          `json:"currency"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Units        int             `json:"units"`
	Instructions string          `json:"instructions,omitempty"`
}

// Order is the durable record of a checkout.
type Order struct {
	ID           uuid.UUID       `json:"id"`
	OrderNum     string          `json:"order_num"`
	Status       OrderStatus     `json:"status"`
	Info         *string         `json:"info,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	AmountBase   decimal.Decimal `json:"amount_base"`
	BaseCurrency string          `json:"base_currency"`
	Email        string          `json:"email"`
	Address      string          `json:"address"`
	Items        []OrderItem     `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	// ConfirmedAt is set once the buyer's confirmation has been delivered.
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// NewOrderFromBasket builds an IN_PROGRESS order priced from b.
func NewOrderFromBasket(orderNum string, b *Basket, baseCurrency string, amountBase decimal.Decimal, email, address string, now time.Time) *Order {
	items := make([]OrderItem, 0, b.Len())
	for _, item := range b.Items() {
		items = append(items, OrderItem{
			SKU:          item.SKU,
			Description:  item.Description,
			Currency:     item.Currency,
			UnitPrice:    item.Amount,
			Units:        item.Count,
			Instructions: item.Instructions,
		})
	}

	return &Order{
		ID:           uuid.New(),
		OrderNum:     orderNum,
		Status:       OrderStatusInProgress,
		Amount:       b.Total(),
		Currency:     b.Currency(),
		AmountBase:   amountBase,
		BaseCurrency: baseCurrency,
		Email:        email,
		Address:      address,
		Items:        items,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Transition records a status update applied to an order.
type Transition struct {
	OrderNum string      `json:"order_num"`
	From     OrderStatus `json:"from"`
	To       OrderStatus `json:"to"`
	// Confirmed reports whether a confirmation had already been delivered
	// for the order when the update was applied.
	Confirmed bool `json:"confirmed"`
}

// Changed reports whether the update moved the order to a new status.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// GenerateOrderNum returns an 18 character order number: 7 hex digits
// derived from owner followed by 11 hex digits of the millisecond clock.
func GenerateOrderNum(owner string, now time.Time) string {
	prefix := xxhash.Sum64String(owner) & 0xFFFFFFF
	ts := uint64(now.UnixMilli()) & 0xFFFFFFFFFFF
	return fmt.Sprintf("%07X%011X", prefix, ts)
}

// OrderNumBelongsTo reports whether orderNum was generated for owner.
func OrderNumBelongsTo(orderNum, owner string) bool {
	if len(orderNum) != 18 {
		return false
	}
	prefix := xxhash.Sum64String(owner) & 0xFFFFFFF
	return strings.EqualFold(orderNum[:7], fmt.Sprintf("%07X", prefix))
}
