package handler

import (
	"strings"

	"storefront-checkout/internal/adapter/http/dto"
	"storefront-checkout/internal/adapter/http/middleware"
	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/ports"
	"storefront-checkout/pkg/apperror"
	"storefront-checkout/pkg/response"

	"github.com/gin-gonic/gin"
)

// OrderHandler serves order status to the session that placed the order.
type OrderHandler struct {
	orders ports.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders ports.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Get handles GET /api/v1/orders/:order_num. Orders of other sessions are
// reported as not found.
func (h *OrderHandler) Get(c *gin.Context) {
	orderNum := strings.ToUpper(c.Param("order_num"))
	if !domain.OrderNumBelongsTo(orderNum, middleware.SessionID(c)) {
		response.Error(c, apperror.ErrOrderNotFound())
		return
	}

	order, err := h.orders.Get(c.Request.Context(), orderNum)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewOrderResponse(order))
}
