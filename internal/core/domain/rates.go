package domain

import (
	"strings"
	"time"

	"storefront-checkout/internal/core/money"
)

// RateSnapshot is an immutable rate table fetched at Timestamp.
type RateSnapshot struct {
	Timestamp time.Time   `json:"timestamp"`
	Base      string      `json:"base"`
	Rates     money.Rates `json:"rates"`
}

// NewRateSnapshot copies rates, upper-cases codes and pins the base to 1.
func NewRateSnapshot(ts time.Time, base string, rates map[string]float64) RateSnapshot {
	base = strings.ToUpper(base)
	table := make(money.Rates, len(rates)+1)
	for code, rate := range rates {
		table[strings.ToUpper(code)] = rate
	}
	table[base] = 1.0
	return RateSnapshot{Timestamp: ts.UTC(), Base: base, Rates: table}
}

// Age returns how long ago the snapshot was taken.
func (s RateSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}

// FreshAt reports whether the snapshot is younger than interval.
func (s RateSnapshot) FreshAt(now time.Time, interval time.Duration) bool {
	return s.Age(now) < interval
}

// Table returns a copy of the rate table.
func (s RateSnapshot) Table() money.Rates {
	out := make(money.Rates, len(s.Rates))
	for code, rate := range s.Rates {
		out[code] = rate
	}
	return out
}
