package handler

import (
	"strings"

	"storefront-checkout/internal/adapter/http/dto"
	"storefront-checkout/internal/adapter/http/middleware"
	"storefront-checkout/internal/core/ports"
	"storefront-checkout/pkg/apperror"
	"storefront-checkout/pkg/response"

	"github.com/gin-gonic/gin"
)

// CheckoutHandler handles payment intent creation and checkout completion.
type CheckoutHandler struct {
	checkout ports.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkout ports.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// CreatePaymentIntent handles POST /api/v1/checkout/payment-intent.
func (h *CheckoutHandler) CreatePaymentIntent(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.checkout.CreatePaymentIntent(c.Request.Context(), middleware.SessionID(c), ports.CheckoutRequest{
		Email:   strings.TrimSpace(req.Email),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewCheckoutResponse(result))
}

// Complete handles POST /api/v1/checkout/complete.
func (h *CheckoutHandler) Complete(c *gin.Context) {
	var req dto.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	order, err := h.checkout.Complete(c.Request.Context(), middleware.SessionID(c), strings.ToUpper(req.OrderNum))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewOrderResponse(order))
}
