package handler

import (
	"strings"

	"storefront-checkout/internal/adapter/http/dto"
	"storefront-checkout/internal/core/currency"
	"storefront-checkout/internal/core/money"
	"storefront-checkout/internal/core/ports"
	"storefront-checkout/pkg/apperror"
	"storefront-checkout/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CatalogHandler serves currency reference data, rates and conversions.
type CatalogHandler struct {
	rates     ports.RateService
	converter ports.Converter
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(rates ports.RateService, converter ports.Converter) *CatalogHandler {
	return &CatalogHandler{rates: rates, converter: converter}
}

// Currencies handles GET /api/v1/currencies.
func (h *CatalogHandler) Currencies(c *gin.Context) {
	response.OK(c, dto.NewCurrencyList(currency.All()))
}

// Rates handles GET /api/v1/rates.
func (h *CatalogHandler) Rates(c *gin.Context) {
	snap, err := h.rates.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewRatesResponse(snap))
}

// Convert handles GET /api/v1/convert?amount=&from=&to=&smallest_unit=.
func (h *CatalogHandler) Convert(c *gin.Context) {
	var q dto.ConvertQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	amount := decimal.RequireFromString(strings.TrimSpace(q.Amount))
	from := strings.ToUpper(q.From)
	to := strings.ToUpper(q.To)

	var opts []money.Option
	unit := "major"
	if q.SmallestUnit {
		opts = append(opts, money.InSmallestUnit())
		unit = "smallest_unit"
	}

	v, err := h.converter.Convert(c.Request.Context(), amount, from, to, opts...)
	if err != nil {
		response.Error(c, err)
		return
	}

	result := v.String()
	if info, ok := currency.Lookup(to); ok && !q.SmallestUnit {
		result = info.Format(v.Decimal(), false)
	}

	response.OK(c, dto.ConvertResponse{
		Amount: amount.String(),
		From:   from,
		To:     to,
		Result: result,
		Unit:   unit,
	})
}
