package money

import (
	"testing"

	"storefront-checkout/internal/core/currency"
	"storefront-checkout/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRates = Rates{
	"EUR": 1,
	"USD": 1.089158,
	"CAD": 1.4534,
	"GBP": 0.879866,
	"JPY": 141.697279,
	"AUD": 1.539742,
	"NZD": 1.678742,
	"NOK": 10.815494,
	"SEK": 11.27759,
	"CHF": 1.004955,
	"KWD": 0.335012,
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNormalise_Quantize(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		code   string
		opts   []Option
		want   string
	}{
		{"two digits", "24.590698", "EUR", nil, "24.59"},
		{"bankers rounding down", "0.125", "USD", nil, "0.12"},
		{"bankers rounding up", "0.135", "USD", nil, "0.14"},
		{"zero digits", "1499.6", "JPY", nil, "1500"},
		{"three digits", "5.12449", "KWD", nil, "5.124"},
		{"explicit factor", "4.59070218", "EUR", []Option{WithFactor(6)}, "4.590702"},
		{"unquantized", "4.59070218", "EUR", []Option{Unquantized()}, "4.59070218"},
		{"int kind truncates", "12.99", "EUR", []Option{As(KindInt)}, "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Normalise(d(tt.amount), tt.code, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Decimal().String())
		})
	}
}

func TestNormalise_SmallestUnit(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		code   string
		want   int64
	}{
		{"cents", "24.59", "EUR", 2459},
		{"truncates beyond digits", "24.599", "EUR", 2459},
		{"zero decimal not scaled", "1500", "JPY", 1500},
		{"zero decimal truncates", "1500.9", "JPY", 1500},
		{"three decimal rounds down to ten", "5.124", "KWD", 5120},
		{"three decimal rounds half up to ten", "5.125", "KWD", 5130},
		{"three decimal exact", "5.130", "BHD", 5130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Normalise(d(tt.amount), tt.code, InSmallestUnit())
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Int64())
			assert.Equal(t, KindInt, v.Kind())
		})
	}
}

func TestNormalise_ThreeDecimalAlwaysMultipleOfTen(t *testing.T) {
	for _, code := range []string{"BHD", "JOD", "KWD", "OMR", "TND"} {
		for _, amount := range []string{"0.001", "0.004", "0.005", "1.999", "123.456", "7"} {
			v, err := Normalise(d(amount), code, InSmallestUnit())
			require.NoError(t, err)
			assert.Zero(t, v.Int64()%10, "%s %s -> %d", code, amount, v.Int64())
		}
	}
}

func TestNormalise_UnknownCurrency(t *testing.T) {
	_, err := Normalise(d("1"), "ZZZ")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, "DOM_001"))
}

func TestConvert_IdentityEqualsNormalise(t *testing.T) {
	amounts := []string{"0", "0.005", "10", "24.590698", "1234.5678"}
	for _, info := range currency.All() {
		for _, a := range amounts {
			// nil table proves no rate lookup happens
			got, err := Convert(d(a), info.Code, info.Code, nil)
			require.NoError(t, err)
			want, err := Normalise(d(a), info.Code)
			require.NoError(t, err)
			assert.True(t, want.Decimal().Equal(got.Decimal()), "%s %s", info.Code, a)
		}
	}
}

func TestConvert_Rates(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		from   string
		to     string
		opts   []Option
		want   string
	}{
		{"eur to usd", "100", "EUR", "USD", nil, "108.92"},
		{"usd to eur", "5", "USD", "EUR", nil, "4.59"},
		{"usd to eur high precision", "5", "USD", "EUR", []Option{WithFactor(6)}, "4.590702"},
		{"count multiplies", "5", "USD", "EUR", []Option{WithCount(3)}, "13.77"},
		{"cross rate", "10", "GBP", "CHF", nil, "11.42"},
		{"to zero decimal", "10", "EUR", "JPY", nil, "1417"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Convert(d(tt.amount), tt.from, tt.to, testRates, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Decimal().String())
		})
	}
}

func TestConvert_SmallestUnit(t *testing.T) {
	v, err := Convert(d("10"), "EUR", "USD", testRates, InSmallestUnit())
	require.NoError(t, err)
	assert.Equal(t, int64(1089), v.Int64())
}

func TestConvert_UnknownCodes(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		rates    Rates
	}{
		{"unknown source", "ZZZ", "EUR", testRates},
		{"unknown target", "EUR", "ZZZ", testRates},
		{"registered but missing from table", "EUR", "PLN", testRates},
		{"empty table", "EUR", "USD", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(d("1"), tt.from, tt.to, tt.rates)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, "DOM_001"))
		})
	}
}

// Converting there and back lands within one unit of the source precision
// as long as the intermediate currency is at least as fine-grained.
func TestConvert_RoundTripWithinOneUnit(t *testing.T) {
	pairs := [][2]string{
		{"EUR", "USD"}, {"USD", "GBP"}, {"CAD", "CHF"}, {"NOK", "SEK"},
		{"AUD", "NZD"}, {"EUR", "JPY"}, {"GBP", "KWD"},
	}
	amounts := []string{"0.01", "1", "9.99", "24.59", "1000", "123456.78"}

	for _, p := range pairs {
		src, _ := currency.Lookup(p[0])
		tolerance := decimal.New(1, -src.Digits)
		for _, a := range amounts {
			there, err := Convert(d(a), p[0], p[1], testRates)
			require.NoError(t, err)
			back, err := Convert(there.Decimal(), p[1], p[0], testRates)
			require.NoError(t, err)

			diff := back.Decimal().Sub(d(a)).Abs()
			assert.True(t, diff.LessThanOrEqual(tolerance), "%s->%s->%s %s: got %s", p[0], p[1], p[0], a, back)
		}
	}
}

func TestValue_Representations(t *testing.T) {
	v, err := Normalise(d("24.5907"), "EUR", As(KindDecimal))
	require.NoError(t, err)

	assert.Equal(t, KindDecimal, v.Kind())
	assert.Equal(t, "24.59", v.String())
	assert.InDelta(t, 24.59, v.Float64(), 1e-9)
	assert.Equal(t, int64(24), v.Int64())
}

func TestSmallestUnit_Direct(t *testing.T) {
	usd, _ := currency.Lookup("USD")
	krw, _ := currency.Lookup("KRW")

	assert.Equal(t, int64(1999), SmallestUnit(d("19.99"), usd))
	assert.Equal(t, int64(15000), SmallestUnit(d("15000"), krw))
}
