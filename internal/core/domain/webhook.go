package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storefront-checkout/pkg/apperror"
)

// Payment intent event types delivered by the gateway.
const (
	EventPaymentIntentSucceeded  = "payment_intent.succeeded"
	EventPaymentIntentProcessing = "payment_intent.processing"
	EventPaymentIntentFailed     = "payment_intent.payment_failed"
)

// WebhookEvent is a gateway notification waiting to be applied.
type WebhookEvent struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Created    int64           `json:"created"`
	Object     json.RawMessage `json:"-"`
	Sequence   uint64          `json:"-"`
	ReceivedAt time.Time       `json:"-"`
}

type webhookEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseWebhookEvent decodes a `{type, data: {object}}` envelope.
func ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return WebhookEvent{}, apperror.Validation("Malformed webhook payload")
	}
	if strings.TrimSpace(env.Type) == "" {
		return WebhookEvent{}, apperror.Validation("Webhook event type is required")
	}
	return WebhookEvent{
		ID:      env.ID,
		Type:    env.Type,
		Created: env.Created,
		Object:  env.Data.Object,
	}, nil
}

// PaymentIntent is the subset of the gateway's payment intent object the
// order flow reads.
type PaymentIntent struct {
	ID               string            `json:"id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	ClientSecret     string            `json:"client_secret,omitempty"`
	ReceiptEmail     string            `json:"receipt_email"`
	Created          int64             `json:"created"`
	Metadata         map[string]string `json:"metadata"`
	Shipping         *Shipping         `json:"shipping,omitempty"`
	LastPaymentError *PaymentError     `json:"last_payment_error,omitempty"`
}

// PaymentError describes why the last payment attempt failed.
type PaymentError struct {
	Code        string `json:"code"`
	DeclineCode string `json:"decline_code"`
	Message     string `json:"message"`
}

type Shipping struct {
	Name    string  `json:"name"`
	Address Address `json:"address"`
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Lines returns the non-empty address parts in display order.
func (a Address) Lines() []string {
	var out []string
	for _, s := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// MetadataOrderNum is the metadata key carrying the order number.
const MetadataOrderNum = "order_num"

// PaymentIntent decodes the event's data object.
func (e WebhookEvent) PaymentIntent() (PaymentIntent, error) {
	var pi PaymentIntent
	if len(e.Object) == 0 {
		return pi, fmt.Errorf("event %s has no data object", e.Type)
	}
	if err := json.Unmarshal(e.Object, &pi); err != nil {
		return pi, fmt.Errorf("decoding payment intent: %w", err)
	}
	return pi, nil
}

// OrderNum returns the order number from metadata, or "" when absent.
func (p PaymentIntent) OrderNum() string {
	return strings.TrimSpace(p.Metadata[MetadataOrderNum])
}

// FailureInfo formats the decline reason as "<code> <decline_code>",
// trimmed. It returns nil when neither is present.
func (p PaymentIntent) FailureInfo() *string {
	if p.LastPaymentError == nil {
		return nil
	}
	info := strings.TrimSpace(p.LastPaymentError.Code + " " + p.LastPaymentError.DeclineCode)
	if info == "" {
		return nil
	}
	return &info
}
