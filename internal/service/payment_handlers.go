package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/ports"

	"github.com/rs/zerolog"
)

// MetadataTotal is the metadata key carrying the formatted basket total.
const MetadataTotal = "total"

// PaymentEventHandlers maps payment intent events onto order transitions.
type PaymentEventHandlers struct {
	orders   ports.OrderService
	notifier ports.Notifier
	log      zerolog.Logger
}

// NewPaymentEventHandlers creates the payment event handlers.
func NewPaymentEventHandlers(orders ports.OrderService, notifier ports.Notifier, log zerolog.Logger) *PaymentEventHandlers {
	return &PaymentEventHandlers{orders: orders, notifier: notifier, log: log}
}

// Handlers returns the dispatch table for the consumer.
func (h *PaymentEventHandlers) Handlers() map[string]EventHandler {
	return map[string]EventHandler{
		domain.EventPaymentIntentSucceeded:  EventHandlerFunc(h.Succeeded),
		domain.EventPaymentIntentProcessing: EventHandlerFunc(h.Processing),
		domain.EventPaymentIntentFailed:     EventHandlerFunc(h.Failed),
	}
}

// Succeeded marks the order PAID and sends the confirmation until one has
// been delivered. A failed send leaves the order unconfirmed, so the
// redelivered event tries again.
func (h *PaymentEventHandlers) Succeeded(ctx context.Context, event domain.WebhookEvent) error {
	pi, orderNum, err := h.intent(event)
	if err != nil || orderNum == "" {
		return err
	}

	t, err := h.orders.Update(ctx, orderNum, domain.OrderStatusPaid, nil)
	if err != nil {
		return err
	}
	if t == nil || t.Confirmed {
		return nil
	}

	if err := h.notifier.SendConfirmation(ctx, confirmationFor(orderNum, pi)); err != nil {
		return fmt.Errorf("sending confirmation for %s: %w", orderNum, err)
	}
	return h.orders.MarkConfirmed(ctx, orderNum)
}

// Processing marks the order PROCESSING_PAYMENT.
func (h *PaymentEventHandlers) Processing(ctx context.Context, event domain.WebhookEvent) error {
	_, orderNum, err := h.intent(event)
	if err != nil || orderNum == "" {
		return err
	}
	_, err = h.orders.Update(ctx, orderNum, domain.OrderStatusProcessingPayment, nil)
	return err
}

// Failed marks the order PAYMENT_FAILED with the decline reason.
func (h *PaymentEventHandlers) Failed(ctx context.Context, event domain.WebhookEvent) error {
	pi, orderNum, err := h.intent(event)
	if err != nil || orderNum == "" {
		return err
	}
	_, err = h.orders.Update(ctx, orderNum, domain.OrderStatusPaymentFailed, pi.FailureInfo())
	return err
}

// intent decodes the payment intent. An empty order number means the event
// does not belong to a storefront order and is skipped.
func (h *PaymentEventHandlers) intent(event domain.WebhookEvent) (domain.PaymentIntent, string, error) {
	pi, err := event.PaymentIntent()
	if err != nil {
		return pi, "", err
	}
	orderNum := pi.OrderNum()
	if orderNum == "" {
		h.log.Warn().Str("event_id", event.ID).Str("payment_intent", pi.ID).Msg("webhook: payment intent has no order number")
	}
	return pi, orderNum, nil
}

func confirmationFor(orderNum string, pi domain.PaymentIntent) ports.OrderConfirmation {
	c := ports.OrderConfirmation{
		OrderNum:        orderNum,
		PaymentIntentID: pi.ID,
		Email:           pi.ReceiptEmail,
		Amount:          pi.Amount,
		Currency:        strings.ToUpper(pi.Currency),
		Total:           pi.Metadata[MetadataTotal],
		PaidAt:          time.Unix(pi.Created, 0).UTC(),
	}
	if pi.Shipping != nil {
		c.FullName = pi.Shipping.Name
		c.Address = pi.Shipping.Address.Lines()
	}
	return c
}
