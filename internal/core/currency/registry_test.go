package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		code   string
		want   string
		digits int32
		ok     bool
	}{
		{"EUR", "EUR", 2, true},
		{"eur", "EUR", 2, true},
		{" usd ", "USD", 2, true},
		{"JPY", "JPY", 0, true},
		{"KWD", "KWD", 3, true},
		{"XXX", "", 0, false},
		{"", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			info, ok := Lookup(tt.code)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, info.Code)
			assert.Equal(t, tt.digits, info.Digits)
		})
	}
}

func TestSpecialCaseListsMatchDigits(t *testing.T) {
	for _, info := range All() {
		assert.Equal(t, info.Digits == 0, info.ZeroDecimal(), info.Code)
		assert.Equal(t, info.Digits == 3, info.ThreeDecimal(), info.Code)
		assert.Len(t, info.Code, 3)
		assert.NotEmpty(t, info.Symbol, info.Code)
	}
	for code := range zeroDecimal {
		assert.True(t, IsValid(code), "zero-decimal %s must be registered", code)
	}
	for code := range threeDecimal {
		assert.True(t, IsValid(code), "three-decimal %s must be registered", code)
	}
}

func TestAll_SortedAndCopied(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Code, all[i].Code)
	}

	all[0].Code = "ZZZ"
	assert.NotEqual(t, "ZZZ", All()[0].Code)
}

func TestFormat(t *testing.T) {
	eur, _ := Lookup("EUR")
	jpy, _ := Lookup("JPY")
	kwd, _ := Lookup("KWD")

	assert.Equal(t, "€24.59", eur.Format(decimal.RequireFromString("24.590698"), true))
	assert.Equal(t, "24.59", eur.Format(decimal.RequireFromString("24.59"), false))
	assert.Equal(t, "¥1500", jpy.Format(decimal.RequireFromString("1500.4"), true))
	assert.Equal(t, "5.125", kwd.Format(decimal.RequireFromString("5.125"), false))
}
