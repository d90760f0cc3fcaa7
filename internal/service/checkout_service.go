package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/ports"
	"storefront-checkout/pkg/apperror"

	"github.com/rs/zerolog"
)

// maxReceiptLines caps per-item metadata entries sent to the gateway.
const maxReceiptLines = 40

// CheckoutService implements ports.CheckoutService.
type CheckoutService struct {
	baskets      ports.BasketService
	orders       ports.OrderRepository
	gateway      ports.PaymentGateway
	baseCurrency string
	now          func() time.Time
	log          zerolog.Logger
}

// NewCheckoutService creates a checkout service. Order amounts are also
// recorded in baseCurrency.
func NewCheckoutService(
	baskets ports.BasketService,
	orders ports.OrderRepository,
	gateway ports.PaymentGateway,
	baseCurrency string,
	log zerolog.Logger,
) *CheckoutService {
	return &CheckoutService{
		baskets:      baskets,
		orders:       orders,
		gateway:      gateway,
		baseCurrency: baseCurrency,
		now:          time.Now,
		log:          log,
	}
}

// CreatePaymentIntent records an IN_PROGRESS order for the session basket
// and opens a payment intent for its total.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, sessionID string, req ports.CheckoutRequest) (*ports.CheckoutResult, error) {
	b, err := s.baskets.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if b.Len() == 0 {
		return nil, apperror.ErrEmptyBasket()
	}

	amountBase, err := b.TotalIn(s.baseCurrency)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	orderNum := domain.GenerateOrderNum(sessionID, now)
	order := domain.NewOrderFromBasket(orderNum, b, s.baseCurrency, amountBase, req.Email, req.Address, now)
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("creating order %s: %w", orderNum, err))
	}

	total := b.FormatTotal(true)
	intent, err := s.gateway.CreatePaymentIntent(ctx, ports.PaymentIntentRequest{
		OrderNum:     orderNum,
		Amount:       b.PaymentTotal(),
		Currency:     strings.ToLower(b.Currency()),
		ReceiptEmail: req.Email,
		Description:  fmt.Sprintf("Order %s", orderNum),
		Metadata:     intentMetadata(orderNum, total, b.ReceiptLines()),
	})
	if err != nil {
		s.log.Error().Err(err).Str("order_num", orderNum).Msg("checkout: payment intent failed")
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.ErrGatewayFailure(err)
	}

	s.log.Info().
		Str("order_num", orderNum).
		Str("payment_intent", intent.ID).
		Int64("amount", intent.Amount).
		Str("currency", b.Currency()).
		Msg("checkout: payment intent created")

	return &ports.CheckoutResult{
		OrderNum:        orderNum,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          intent.Amount,
		Currency:        b.Currency(),
		Total:           total,
	}, nil
}

// Complete returns the session's order and discards the basket once the
// buyer has confirmed payment.
func (s *CheckoutService) Complete(ctx context.Context, sessionID string, orderNum string) (*domain.Order, error) {
	if !domain.OrderNumBelongsTo(orderNum, sessionID) {
		return nil, apperror.ErrOrderNotFound()
	}
	order, err := s.orders.GetByOrderNum(ctx, orderNum)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("loading order %s: %w", orderNum, err))
	}
	if order == nil {
		return nil, apperror.ErrOrderNotFound()
	}
	if err := s.baskets.Discard(ctx, sessionID); err != nil {
		return nil, err
	}
	return order, nil
}

func intentMetadata(orderNum, total string, lines []string) map[string]string {
	md := map[string]string{
		domain.MetadataOrderNum: orderNum,
		MetadataTotal:           total,
	}
	for i, line := range lines {
		if i == maxReceiptLines {
			break
		}
		md[fmt.Sprintf("item_%d", i+1)] = line
	}
	return md
}
