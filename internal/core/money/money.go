// Package money implements currency conversion and per-currency rounding.
// All arithmetic is done on decimals; floats appear only when a caller
// asks for one at the edge.
package money

import (
	"storefront-checkout/internal/core/currency"
	"storefront-checkout/pkg/apperror"

	"github.com/shopspring/decimal"
)

// Rates maps a currency code to its rate against the table's base.
type Rates map[string]float64

// Kind selects the numeric representation of a normalised Value.
type Kind int

const (
	KindFloat Kind = iota
	KindDecimal
	KindInt
)

// Value is the result of a conversion or normalisation.
type Value struct {
	amount decimal.Decimal
	kind   Kind
}

// Decimal returns the exact amount.
func (v Value) Decimal() decimal.Decimal { return v.amount }

// Float64 returns the amount as a float. Use only for display.
func (v Value) Float64() float64 {
	f, _ := v.amount.Float64()
	return f
}

// Int64 returns the integer part of the amount.
func (v Value) Int64() int64 { return v.amount.IntPart() }

// Kind reports the representation requested when the value was built.
func (v Value) Kind() Kind { return v.kind }

func (v Value) String() string { return v.amount.String() }

type options struct {
	count        int64
	smallestUnit bool
	factor       int32
	hasFactor    bool
	unquantized  bool
	kind         Kind
}

// Option adjusts Convert and Normalise.
type Option func(*options)

// WithCount multiplies the amount by n before conversion.
func WithCount(n int64) Option {
	return func(o *options) { o.count = n }
}

// InSmallestUnit returns the integer gateway amount, e.g. cents.
func InSmallestUnit() Option {
	return func(o *options) { o.smallestUnit = true }
}

// WithFactor quantizes to places decimal places instead of the currency digits.
func WithFactor(places int32) Option {
	return func(o *options) {
		o.factor = places
		o.hasFactor = true
	}
}

// Unquantized skips rounding entirely.
func Unquantized() Option {
	return func(o *options) { o.unquantized = true }
}

// As selects the representation of the result.
func As(k Kind) Option {
	return func(o *options) { o.kind = k }
}

func buildOptions(opts []Option) options {
	o := options{count: 1, kind: KindFloat}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Normalise rounds amount for currency code. By default it quantizes to
// the currency digits with banker's rounding.
func Normalise(amount decimal.Decimal, code string, opts ...Option) (Value, error) {
	info, ok := currency.Lookup(code)
	if !ok {
		return Value{}, apperror.ErrUnknownCurrency(code)
	}
	return normalise(amount, info, buildOptions(opts)), nil
}

// Convert converts amount (times count) from one currency to another using
// the rate table, then normalises it for the target currency. Identical
// currencies skip the rate table entirely.
func Convert(amount decimal.Decimal, from, to string, rates Rates, opts ...Option) (Value, error) {
	fromInfo, ok := currency.Lookup(from)
	if !ok {
		return Value{}, apperror.ErrUnknownCurrency(from)
	}
	toInfo, ok := currency.Lookup(to)
	if !ok {
		return Value{}, apperror.ErrUnknownCurrency(to)
	}

	o := buildOptions(opts)
	value := amount.Mul(decimal.NewFromInt(o.count))

	if fromInfo.Code != toInfo.Code {
		rate, err := Rate(rates, fromInfo.Code, toInfo.Code)
		if err != nil {
			return Value{}, err
		}
		value = value.Mul(rate)
	}

	return normalise(value, toInfo, o), nil
}

// Rate returns the cross rate from -> to derived from a single-base table.
func Rate(rates Rates, from, to string) (decimal.Decimal, error) {
	fr, ok := rates[from]
	if !ok || fr <= 0 {
		return decimal.Zero, apperror.ErrUnknownCurrency(from)
	}
	tr, ok := rates[to]
	if !ok || tr <= 0 {
		return decimal.Zero, apperror.ErrUnknownCurrency(to)
	}
	return decimal.NewFromFloat(tr).Div(decimal.NewFromFloat(fr)), nil
}

// SmallestUnit converts amount to the integer amount a payment gateway
// expects. Zero-decimal currencies are not scaled; three-decimal
// currencies are rounded to the nearest ten.
func SmallestUnit(amount decimal.Decimal, info currency.Info) int64 {
	units := amount
	if !info.ZeroDecimal() {
		units = units.Shift(info.Digits)
	}
	units = units.Truncate(0)
	if info.ThreeDecimal() {
		units = units.Round(-1)
	}
	return units.IntPart()
}

func normalise(amount decimal.Decimal, info currency.Info, o options) Value {
	if o.smallestUnit {
		return Value{amount: decimal.NewFromInt(SmallestUnit(amount, info)), kind: KindInt}
	}

	q := amount
	switch {
	case o.unquantized:
	case o.hasFactor:
		q = amount.RoundBank(o.factor)
	default:
		q = amount.RoundBank(info.Digits)
	}
	if o.kind == KindInt {
		q = q.Truncate(0)
	}
	return Value{amount: q, kind: o.kind}
}
