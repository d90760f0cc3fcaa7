package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"storefront-checkout/config"
	"storefront-checkout/internal/core/ports"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const maxResponseBytes = 1 << 20

// StripeClient implements ports.PaymentGateway over the Stripe REST API.
type StripeClient struct {
	baseURL   string
	secretKey string
	http      HTTPClient
	log       zerolog.Logger
}

type paymentIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe %d %s/%s: %s", e.StatusCode, e.Type, e.Code, e.Message)
}

// NewStripeClient creates a gateway client.
func NewStripeClient(cfg config.GatewayConfig, httpClient HTTPClient, log zerolog.Logger) *StripeClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &StripeClient{
		baseURL:   strings.TrimRight(cfg.APIURL, "/"),
		secretKey: cfg.SecretKey,
		http:      httpClient,
		log:       log,
	}
}

// CreatePaymentIntent opens a payment intent. The order number is the
// idempotency key, so a retried request never creates a second intent.
func (c *StripeClient) CreatePaymentIntent(ctx context.Context, in ports.PaymentIntentRequest) (*ports.PaymentIntentResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(in.Amount, 10))
	form.Set("currency", strings.ToLower(in.Currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	if in.ReceiptEmail != "" {
		form.Set("receipt_email", in.ReceiptEmail)
	}
	if in.Description != "" {
		form.Set("description", in.Description)
	}
	for k, v := range in.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building payment intent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if in.OrderNum != "" {
		req.Header.Set("Idempotency-Key", "pi-"+in.OrderNum)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting payment intent: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading payment intent response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(body, &er) == nil {
			apiErr.Type, apiErr.Code, apiErr.Message = er.Error.Type, er.Error.Code, er.Error.Message
		}
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("type", apiErr.Type).
			Str("code", apiErr.Code).
			Str("order_num", in.OrderNum).
			Msg("gateway: payment intent rejected")
		return nil, apiErr
	}

	var pi paymentIntentResponse
	if err := json.Unmarshal(body, &pi); err != nil {
		return nil, fmt.Errorf("decoding payment intent: %w", err)
	}
	if pi.ID == "" || pi.ClientSecret == "" {
		return nil, errors.New("payment intent response missing id or client secret")
	}

	return &ports.PaymentIntentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     pi.Currency,
		Status:       pi.Status,
	}, nil
}
