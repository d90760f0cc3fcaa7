package handler

import (
	"strconv"
	"strings"

	"storefront-checkout/internal/adapter/http/dto"
	"storefront-checkout/internal/adapter/http/middleware"
	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/ports"
	"storefront-checkout/pkg/apperror"
	"storefront-checkout/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BasketHandler handles the session basket endpoints.
type BasketHandler struct {
	baskets ports.BasketService
}

// NewBasketHandler creates a new BasketHandler.
func NewBasketHandler(baskets ports.BasketService) *BasketHandler {
	return &BasketHandler{baskets: baskets}
}

// Get handles GET /api/v1/basket.
func (h *BasketHandler) Get(c *gin.Context) {
	b, err := h.baskets.Get(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBasketResponse(b))
}

// AddItem handles POST /api/v1/basket/items.
func (h *BasketHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	b, update, err := h.baskets.AddItem(c.Request.Context(), middleware.SessionID(c), domain.BasketItem{
		Currency:     strings.ToUpper(req.Currency),
		Amount:       decimal.RequireFromString(req.Amount),
		Count:        req.Count,
		Description:  req.Description,
		SKU:          req.SKU,
		Instructions: req.Instructions,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.AddItemResponse{
		Basket:  dto.NewBasketResponse(b),
		Added:   update.Added,
		Updated: update.Updated,
		Count:   update.Count,
	})
}

// UpdateItem handles PATCH /api/v1/basket/items/:index.
func (h *BasketHandler) UpdateItem(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}
	var req dto.UpdateUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	b, updated, err := h.baskets.UpdateItemUnits(c.Request.Context(), middleware.SessionID(c), index, req.Units)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !updated {
		response.Error(c, apperror.ErrItemNotFound())
		return
	}
	response.OK(c, dto.NewBasketResponse(b))
}

// RemoveItem handles DELETE /api/v1/basket/items/:index.
func (h *BasketHandler) RemoveItem(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}

	b, removed, err := h.baskets.RemoveItem(c.Request.Context(), middleware.SessionID(c), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !removed {
		response.Error(c, apperror.ErrItemNotFound())
		return
	}
	response.OK(c, dto.NewBasketResponse(b))
}

// SetCurrency handles PUT /api/v1/basket/currency.
func (h *BasketHandler) SetCurrency(c *gin.Context) {
	var req dto.SetCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	b, err := h.baskets.SetCurrency(c.Request.Context(), middleware.SessionID(c), strings.ToUpper(strings.TrimSpace(req.Currency)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBasketResponse(b))
}

// Clear handles DELETE /api/v1/basket.
func (h *BasketHandler) Clear(c *gin.Context) {
	b, err := h.baskets.Clear(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBasketResponse(b))
}

func itemIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.Error(c, apperror.Validation("item index must be a non-negative integer"))
		return 0, false
	}
	return index, true
}
