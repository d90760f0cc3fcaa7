package service

import (
	"context"

	"storefront-checkout/internal/core/currency"
	"storefront-checkout/internal/core/money"
	"storefront-checkout/internal/core/ports"
	"storefront-checkout/pkg/apperror"

	"github.com/shopspring/decimal"
)

// ConverterService implements ports.Converter on top of the current rates.
type ConverterService struct {
	rates ports.RateService
}

// NewConverterService creates a converter backed by rates.
func NewConverterService(rates ports.RateService) *ConverterService {
	return &ConverterService{rates: rates}
}

// Convert converts amount between currencies. Same-currency conversions
// are only normalised and never touch the rate service.
func (c *ConverterService) Convert(ctx context.Context, amount decimal.Decimal, from, to string, opts ...money.Option) (money.Value, error) {
	fromInfo, ok := currency.Lookup(from)
	if !ok {
		return money.Value{}, apperror.ErrUnknownCurrency(from)
	}
	toInfo, ok := currency.Lookup(to)
	if !ok {
		return money.Value{}, apperror.ErrUnknownCurrency(to)
	}
	if fromInfo.Code == toInfo.Code {
		return money.Convert(amount, fromInfo.Code, toInfo.Code, nil, opts...)
	}

	rates, _, err := c.rates.GetRates(ctx)
	if err != nil {
		return money.Value{}, err
	}
	return money.Convert(amount, fromInfo.Code, toInfo.Code, rates, opts...)
}
