package handler

import (
	"errors"
	"io"
	"net/http"

	"storefront-checkout/internal/adapter/http/dto"
	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/ports"
	"storefront-checkout/pkg/apperror"
	"storefront-checkout/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HeaderGatewaySignature carries the gateway's webhook signature.
const HeaderGatewaySignature = "Stripe-Signature"

// WebhookHandler accepts gateway events and queues them. Processing
// happens after the response, so downstream failures never reach the
// gateway.
type WebhookHandler struct {
	verifier  ports.SignatureVerifier
	publisher ports.EventPublisher
	log       zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(verifier ports.SignatureVerifier, publisher ports.EventPublisher, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, publisher: publisher, log: log}
}

// Receive handles POST /api/v1/webhooks/stripe.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, apperror.Validation("request body too large"))
			return
		}
		response.Error(c, apperror.Validation("cannot read request body"))
		return
	}

	if h.verifier.Enabled() {
		if err := h.verifier.Verify(body, c.GetHeader(HeaderGatewaySignature)); err != nil {
			h.log.Warn().Str("client_ip", c.ClientIP()).Msg("webhook signature rejected")
			response.Error(c, err)
			return
		}
	}

	event, err := domain.ParseWebhookEvent(body)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.publisher.Publish(event); err != nil {
		h.log.Error().Err(err).Str("event_id", event.ID).Str("event_type", event.Type).Msg("webhook event not queued")
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.WebhookAck{Received: true})
}
