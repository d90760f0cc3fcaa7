package ports

import (
	"context"
	"time"

	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/money"

	"github.com/shopspring/decimal"
)

// --- Adapter Ports (Infrastructure) ---

// RateCache is the shared fast path in front of the snapshot table.
type RateCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context) (*domain.RateSnapshot, error)
	Set(ctx context.Context, snapshot domain.RateSnapshot, ttl time.Duration) error
}

// RateFetcher calls the external exchange rate API.
type RateFetcher interface {
	FetchLatest(ctx context.Context, base string) (*domain.RateSnapshot, error)
}

// BasketStore keeps serialized baskets keyed by session id.
type BasketStore interface {
	// Load returns nil, nil when the session has no basket.
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// EventDeduplicator remembers webhook event ids that were applied.
type EventDeduplicator interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) error
}

// PaymentGateway creates payment intents with the payment provider.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntentResult, error)
}

// PaymentIntentRequest carries an amount already in the smallest unit.
type PaymentIntentRequest struct {
	OrderNum     string
	Amount       int64
	Currency     string // lower-case ISO code
	ReceiptEmail string
	Description  string
	Metadata     map[string]string
}

// PaymentIntentResult is what the buyer's browser needs to confirm payment.
type PaymentIntentResult struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       string
}

// Notifier sends the order confirmation once an order is paid.
type Notifier interface {
	SendConfirmation(ctx context.Context, confirmation OrderConfirmation) error
}

// OrderConfirmation is the payload of a paid-order notification.
type OrderConfirmation struct {
	OrderNum        string    `json:"order_num"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name,omitempty"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	Total           string    `json:"total,omitempty"`
	Address         []string  `json:"address,omitempty"`
	PaidAt          time.Time `json:"paid_at"`
}

// SignatureVerifier authenticates webhook payloads.
type SignatureVerifier interface {
	// Enabled is false when no shared secret is configured.
	Enabled() bool
	Verify(payload []byte, header string) error
}

// EventPublisher hands accepted webhook events to the consumer.
type EventPublisher interface {
	Publish(event domain.WebhookEvent) error
}

// --- Service Ports (Business Logic) ---

// RateService resolves the current exchange rate table.
type RateService interface {
	Snapshot(ctx context.Context) (*domain.RateSnapshot, error)
	// GetRates returns the rate table and its base currency.
	GetRates(ctx context.Context) (money.Rates, string, error)
}

// Converter converts amounts at the current rates.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, opts ...money.Option) (money.Value, error)
}

// BasketService loads, mutates and saves per-session baskets.
type BasketService interface {
	Get(ctx context.Context, sessionID string) (*domain.Basket, error)
	AddItem(ctx context.Context, sessionID string, item domain.BasketItem) (*domain.Basket, domain.BasketUpdate, error)
	RemoveItem(ctx context.Context, sessionID string, index int) (*domain.Basket, bool, error)
	UpdateItemUnits(ctx context.Context, sessionID string, index, units int) (*domain.Basket, bool, error)
	SetCurrency(ctx context.Context, sessionID string, code string) (*domain.Basket, error)
	Clear(ctx context.Context, sessionID string) (*domain.Basket, error)
	Discard(ctx context.Context, sessionID string) error
}

// CheckoutService turns a basket into an order and a payment intent.
type CheckoutService interface {
	CreatePaymentIntent(ctx context.Context, sessionID string, req CheckoutRequest) (*CheckoutResult, error)
	Complete(ctx context.Context, sessionID string, orderNum string) (*domain.Order, error)
}

// CheckoutRequest holds validated buyer details.
type CheckoutRequest struct {
	Email   string
	Address string
}

// CheckoutResult is returned to the buyer to confirm payment client-side.
type CheckoutResult struct {
	OrderNum        string
	PaymentIntentID string
	ClientSecret    string
	Amount          int64
	Currency        string
	Total           string
}

// OrderService applies status transitions to persisted orders.
type OrderService interface {
	// Update returns nil, nil when no order matches orderNum.
	Update(ctx context.Context, orderNum string, status domain.OrderStatus, info *string) (*domain.Transition, error)
	Get(ctx context.Context, orderNum string) (*domain.Order, error)
	MarkConfirmed(ctx context.Context, orderNum string) error
}
