package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"storefront-checkout/internal/core/currency"
	"storefront-checkout/internal/core/money"
	"storefront-checkout/pkg/apperror"

	"github.com/shopspring/decimal"
)

// DefaultInternalPrecision is the number of decimal places foreign items
// are converted at before the basket total is rounded.
const DefaultInternalPrecision int32 = 6

// RateLookup resolves the current rate table. A Basket only calls it when
// an item is priced in a currency other than the display currency.
type RateLookup func() (money.Rates, error)

// BasketItem is a single basket line.
type BasketItem struct {
	Currency     string          `json:"currency"`
	Amount       decimal.Decimal `json:"amount"`
	Count        int             `json:"count"`
	Description  string          `json:"description"`
	SKU          string          `json:"sku,omitempty"`
	Instructions string          `json:"instructions,omitempty"`
}

// Cost is the line cost in the item's own currency.
func (i BasketItem) Cost() decimal.Decimal {
	return i.Amount.Mul(decimal.NewFromInt(int64(i.Count)))
}

// BasketUpdate describes the outcome of Basket.Add.
type BasketUpdate struct {
	Added   bool `json:"added"`
	Updated bool `json:"updated"`
	Count   int  `json:"count"`
}

// Basket is a multi-currency shopping basket priced in a single display
// currency. Subtotals and total are recomputed on every mutation; a failed
// recompute leaves the basket as it was.
type Basket struct {
	currency  string
	precision int32
	items     []BasketItem
	subtotals []decimal.Decimal
	total     decimal.Decimal
	rates     RateLookup
}

// NewBasket creates an empty basket displayed in code.
func NewBasket(code string, precision int32) (*Basket, error) {
	info, ok := currency.Lookup(code)
	if !ok {
		return nil, apperror.ErrUnknownCurrency(code)
	}
	if precision <= 0 {
		precision = DefaultInternalPrecision
	}
	return &Basket{currency: info.Code, precision: precision}, nil
}

// UseRates attaches the rate source for subsequent mutations.
func (b *Basket) UseRates(lookup RateLookup) {
	b.rates = lookup
}

func (b *Basket) Currency() string { return b.currency }

func (b *Basket) CurrencyInfo() currency.Info {
	info, _ := currency.Lookup(b.currency)
	return info
}

// Len returns the number of lines.
func (b *Basket) Len() int { return len(b.items) }

// NumItems returns the number of units across all lines.
func (b *Basket) NumItems() int {
	n := 0
	for _, item := range b.items {
		n += item.Count
	}
	return n
}

// Items returns a copy of the basket lines.
func (b *Basket) Items() []BasketItem {
	out := make([]BasketItem, len(b.items))
	copy(out, b.items)
	return out
}

// Subtotals returns per-line costs in the display currency, rounded to
// the currency digits.
func (b *Basket) Subtotals() []decimal.Decimal {
	digits := b.CurrencyInfo().Digits
	out := make([]decimal.Decimal, len(b.subtotals))
	for i, s := range b.subtotals {
		out[i] = s.RoundBank(digits)
	}
	return out
}

// Total returns the basket total rounded to the display currency digits.
func (b *Basket) Total() decimal.Decimal {
	return b.total.RoundBank(b.CurrencyInfo().Digits)
}

// PaymentTotal returns the total in the currency's smallest unit.
func (b *Basket) PaymentTotal() int64 {
	return money.SmallestUnit(b.Total(), b.CurrencyInfo())
}

// FormatTotal renders the total for display.
func (b *Basket) FormatTotal(withSymbol bool) string {
	return b.CurrencyInfo().Format(b.total, withSymbol)
}

// TotalIn converts the exact total into another currency.
func (b *Basket) TotalIn(code string) (decimal.Decimal, error) {
	info, ok := currency.Lookup(code)
	if !ok {
		return decimal.Zero, apperror.ErrUnknownCurrency(code)
	}
	if info.Code == b.currency {
		return b.Total(), nil
	}
	rates, err := b.lookupRates()
	if err != nil {
		return decimal.Zero, err
	}
	v, err := money.Convert(b.total, b.currency, info.Code, rates, money.As(money.KindDecimal))
	if err != nil {
		return decimal.Zero, err
	}
	return v.Decimal(), nil
}

// Add appends an item, or increases the count of an existing line with
// the same SKU. Count defaults to 1 and currency to the basket currency.
func (b *Basket) Add(item BasketItem) (BasketUpdate, error) {
	if item.Count == 0 {
		item.Count = 1
	}
	if item.Count < 0 {
		return BasketUpdate{}, apperror.ErrInvalidUnits()
	}
	if item.Amount.IsNegative() {
		return BasketUpdate{}, apperror.Validation("Item amount must not be negative")
	}
	if item.Currency == "" {
		item.Currency = b.currency
	} else {
		info, ok := currency.Lookup(item.Currency)
		if !ok {
			return BasketUpdate{}, apperror.ErrUnknownCurrency(item.Currency)
		}
		item.Currency = info.Code
	}

	prev := b.snapshot()

	var update BasketUpdate
	if idx := b.indexOfSKU(item.SKU); idx >= 0 {
		existing := b.items[idx]
		if existing.Currency != item.Currency || !existing.Amount.Equal(item.Amount) {
			return BasketUpdate{}, apperror.ErrSKUConflict(item.SKU)
		}
		b.items[idx].Count += item.Count
		update = BasketUpdate{Updated: true, Count: b.items[idx].Count}
	} else {
		b.items = append(b.items, item)
		update = BasketUpdate{Added: true, Count: item.Count}
	}

	if err := b.recompute(); err != nil {
		b.restore(prev)
		return BasketUpdate{}, err
	}
	return update, nil
}

// Remove deletes the line at index. It returns false when index is out
// of range.
func (b *Basket) Remove(index int) (bool, error) {
	if index < 0 || index >= len(b.items) {
		return false, nil
	}

	prev := b.snapshot()
	b.items = append(b.items[:index:index], b.items[index+1:]...)

	if err := b.recompute(); err != nil {
		b.restore(prev)
		return false, err
	}
	return true, nil
}

// UpdateItemUnits sets the count of the line at index. It returns false,
// without touching the basket, when index is out of range or units < 1.
func (b *Basket) UpdateItemUnits(index, units int) (bool, error) {
	if units <= 0 || index < 0 || index >= len(b.items) {
		return false, nil
	}

	prev := b.snapshot()
	b.items[index].Count = units

	if err := b.recompute(); err != nil {
		b.restore(prev)
		return false, err
	}
	return true, nil
}

// SetCurrency switches the display currency and reprices every line.
func (b *Basket) SetCurrency(code string) error {
	info, ok := currency.Lookup(code)
	if !ok {
		return apperror.ErrUnknownCurrency(code)
	}
	if info.Code == b.currency {
		return nil
	}

	prev := b.snapshot()
	b.currency = info.Code

	if err := b.recompute(); err != nil {
		b.restore(prev)
		return err
	}
	return nil
}

// Clear empties the basket, keeping the display currency.
func (b *Basket) Clear() {
	b.items = nil
	b.subtotals = nil
	b.total = decimal.Zero
}

// ReceiptLines renders one line of text per item.
func (b *Basket) ReceiptLines() []string {
	info := b.CurrencyInfo()
	lines := make([]string, len(b.items))
	for i, item := range b.items {
		unit := item.Amount.StringFixedBank(itemDigits(item.Currency))
		line := fmt.Sprintf("%d x %s @ %s %s = %s", item.Count, item.Description, unit, item.Currency, info.Format(b.subtotals[i], true))
		if item.SKU != "" {
			line = fmt.Sprintf("[%s] %s", item.SKU, line)
		}
		lines[i] = line
	}
	return lines
}

func itemDigits(code string) int32 {
	info, _ := currency.Lookup(code)
	return info.Digits
}

func (b *Basket) indexOfSKU(sku string) int {
	if sku == "" {
		return -1
	}
	for i, item := range b.items {
		if item.SKU == sku {
			return i
		}
	}
	return -1
}

func (b *Basket) lookupRates() (money.Rates, error) {
	if b.rates == nil {
		return nil, apperror.ErrRatesUnavailable(errors.New("basket has no rate source"))
	}
	return b.rates()
}

// recompute prices every line in the display currency. Foreign lines are
// converted at the internal precision; rounding to display digits happens
// once, on read.
func (b *Basket) recompute() error {
	subtotals := make([]decimal.Decimal, len(b.items))
	total := decimal.Zero

	var rates money.Rates
	for i, item := range b.items {
		cost := item.Cost()
		if item.Currency != b.currency {
			if rates == nil {
				r, err := b.lookupRates()
				if err != nil {
					return err
				}
				rates = r
			}
			v, err := money.Convert(item.Amount, item.Currency, b.currency, rates,
				money.WithCount(int64(item.Count)),
				money.WithFactor(b.precision),
				money.As(money.KindDecimal),
			)
			if err != nil {
				return err
			}
			cost = v.Decimal()
		}
		subtotals[i] = cost
		total = total.Add(cost)
	}

	b.subtotals = subtotals
	b.total = total
	return nil
}

type basketState struct {
	currency  string
	items     []BasketItem
	subtotals []decimal.Decimal
	total     decimal.Decimal
}

func (b *Basket) snapshot() basketState {
	s := basketState{currency: b.currency, total: b.total}
	if b.items != nil {
		s.items = make([]BasketItem, len(b.items))
		copy(s.items, b.items)
	}
	if b.subtotals != nil {
		s.subtotals = make([]decimal.Decimal, len(b.subtotals))
		copy(s.subtotals, b.subtotals)
	}
	return s
}

func (b *Basket) restore(s basketState) {
	b.currency = s.currency
	b.items = s.items
	b.subtotals = s.subtotals
	b.total = s.total
}

type basketJSON struct {
	Currency  string            `json:"currency"`
	Precision int32             `json:"precision"`
	Items     []BasketItem      `json:"items"`
	Subtotals []decimal.Decimal `json:"subtotals"`
	Total     decimal.Decimal   `json:"total"`
}

// MarshalJSON encodes the full basket state. Decimals are written as
// strings so the round trip is exact.
func (b *Basket) MarshalJSON() ([]byte, error) {
	items := b.items
	if items == nil {
		items = []BasketItem{}
	}
	subtotals := b.subtotals
	if subtotals == nil {
		subtotals = []decimal.Decimal{}
	}
	return json.Marshal(basketJSON{
		Currency:  b.currency,
		Precision: b.precision,
		Items:     items,
		Subtotals: subtotals,
		Total:     b.total,
	})
}

// UnmarshalJSON restores a basket written by MarshalJSON.
func (b *Basket) UnmarshalJSON(data []byte) error {
	var raw basketJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding basket: %w", err)
	}
	info, ok := currency.Lookup(raw.Currency)
	if !ok {
		return apperror.ErrUnknownCurrency(raw.Currency)
	}
	if len(raw.Subtotals) != len(raw.Items) {
		return fmt.Errorf("decoding basket: %d items but %d subtotals", len(raw.Items), len(raw.Subtotals))
	}

	b.currency = info.Code
	b.precision = raw.Precision
	if b.precision <= 0 {
		b.precision = DefaultInternalPrecision
	}
	b.items = nil
	b.subtotals = nil
	if len(raw.Items) > 0 {
		b.items = raw.Items
		b.subtotals = raw.Subtotals
	}
	b.total = raw.Total
	return nil
}

// DecodeBasket restores a basket from its serialized form.
func DecodeBasket(data []byte) (*Basket, error) {
	b := &Basket{}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, err
	}
	return b, nil
}
