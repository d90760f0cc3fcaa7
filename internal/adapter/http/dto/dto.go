package dto

import (
	"time"

	"storefront-checkout/internal/core/currency"
	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/ports"
)

// --- Basket DTOs ---

type AddItemRequest struct {
	Amount       string `json:"amount" binding:"required,amount"`
	Currency     string `json:"currency" binding:"omitempty,currency"`
	Count        int    `json:"count" binding:"omitempty,min=1,max=10000"`
	Description  string `json:"description" binding:"required,max=200"`
	SKU          string `json:"sku" binding:"omitempty,max=64,safe_id"`
	Instructions string `json:"instructions" binding:"omitempty,max=500"`
}

type UpdateUnitsRequest struct {
	Units int `json:"units" binding:"required,min=1,max=10000"`
}

type SetCurrencyRequest struct {
	Currency string `json:"currency" binding:"required,currency"`
}

type BasketItemResponse struct {
	Index        int    `json:"index"`
	Currency     string `json:"currency"`
	Amount       string `json:"amount"`
	Count        int    `json:"count"`
	Description  string `json:"description"`
	SKU          string `json:"sku,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Subtotal     string `json:"subtotal"`
}

type BasketResponse struct {
	Currency     string               `json:"currency"`
	Items        []BasketItemResponse `json:"items"`
	NumItems     int                  `json:"num_items"`
	Total        string               `json:"total"`
	Formatted    string               `json:"formatted_total"`
	PaymentTotal int64                `json:"payment_total"`
}

type AddItemResponse struct {
	Basket  BasketResponse `json:"basket"`
	Added   bool           `json:"added"`
	Updated bool           `json:"updated"`
	Count   int            `json:"count"`
}

// NewBasketResponse renders b with amounts at the display currency digits.
func NewBasketResponse(b *domain.Basket) BasketResponse {
	info := b.CurrencyInfo()
	items := b.Items()
	subtotals := b.Subtotals()

	resp := BasketResponse{
		Currency:     b.Currency(),
		Items:        make([]BasketItemResponse, len(items)),
		NumItems:     b.NumItems(),
		Total:        b.FormatTotal(false),
		Formatted:    b.FormatTotal(true),
		PaymentTotal: b.PaymentTotal(),
	}
	for i, item := range items {
		resp.Items[i] = BasketItemResponse{
			Index:        i,
			Currency:     item.Currency,
			Amount:       item.Amount.String(),
			Count:        item.Count,
			Description:  item.Description,
			SKU:          item.SKU,
			Instructions: item.Instructions,
			Subtotal:     info.Format(subtotals[i], false),
		}
	}
	return resp
}

// --- Checkout DTOs ---

type CheckoutRequest struct {
	Email   string `json:"email" binding:"required,email,max=254"`
	Address string `json:"address" binding:"omitempty,max=500"`
}

type CompleteRequest struct {
	OrderNum string `json:"order_num" binding:"required,len=18,hexadecimal"`
}

type CheckoutResponse struct {
	OrderNum        string `json:"order_num"`
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Total           string `json:"total"`
}

func NewCheckoutResponse(r *ports.CheckoutResult) CheckoutResponse {
	return CheckoutResponse{
		OrderNum:        r.OrderNum,
		PaymentIntentID: r.PaymentIntentID,
		ClientSecret:    r.ClientSecret,
		Amount:          r.Amount,
		Currency:        r.Currency,
		Total:           r.Total,
	}
}

// --- Order DTOs ---

type OrderItemResponse struct {
	SKU          string `json:"sku,omitempty"`
	Description  string `json:"description"`
	Currency     string `json:"currency"`
	UnitPrice    string `json:"unit_price"`
	Units        int    `json:"units"`
	Instructions string `json:"instructions,omitempty"`
}

type OrderResponse struct {
	OrderNum     string              `json:"order_num"`
	Status       string              `json:"status"`
	Info         *string             `json:"info,omitempty"`
	Amount       string              `json:"amount"`
	Currency     string              `json:"currency"`
	AmountBase   string              `json:"amount_base"`
	BaseCurrency string              `json:"base_currency"`
	Items        []OrderItemResponse `json:"items"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
}

// NewOrderResponse renders an order without buyer contact details.
func NewOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		OrderNum:     o.OrderNum,
		Status:       string(o.Status),
		Info:         o.Info,
		Amount:       o.Amount.String(),
		Currency:     o.Currency,
		AmountBase:   o.AmountBase.String(),
		BaseCurrency: o.BaseCurrency,
		Items:        make([]OrderItemResponse, len(o.Items)),
		CreatedAt:    o.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    o.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if info, ok := currency.Lookup(o.Currency); ok {
		resp.Amount = info.Format(o.Amount, false)
	}
	for i, item := range o.Items {
		resp.Items[i] = OrderItemResponse{
			SKU:          item.SKU,
			Description:  item.Description,
			Currency:     item.Currency,
			UnitPrice:    item.UnitPrice.String(),
			Units:        item.Units,
			Instructions: item.Instructions,
		}
	}
	return resp
}

// --- Catalog DTOs ---

type ConvertQuery struct {
	Amount       string `form:"amount" binding:"required,amount"`
	From         string `form:"from" binding:"required,currency"`
	To           string `form:"to" binding:"required,currency"`
	SmallestUnit bool   `form:"smallest_unit"`
}

type ConvertResponse struct {
	Amount string `json:"amount"`
	From   string `json:"from"`
	To     string `json:"to"`
	Result string `json:"result"`
	// Unit is "smallest_unit" or "major".
	Unit string `json:"unit"`
}

type RatesResponse struct {
	Base      string             `json:"base"`
	Timestamp string             `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
}

func NewRatesResponse(s *domain.RateSnapshot) RatesResponse {
	return RatesResponse{
		Base:      s.Base,
		Timestamp: s.Timestamp.UTC().Format(time.RFC3339),
		Rates:     s.Table(),
	}
}

type CurrencyResponse struct {
	Code        string `json:"code"`
	NumericCode int    `json:"numeric_code"`
	Digits      int32  `json:"digits"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
}

func NewCurrencyList(all []currency.Info) []CurrencyResponse {
	out := make([]CurrencyResponse, len(all))
	for i, c := range all {
		out[i] = CurrencyResponse(c)
	}
	return out
}

// --- Webhook DTOs ---

type WebhookAck struct {
	Received bool `json:"received"`
}
