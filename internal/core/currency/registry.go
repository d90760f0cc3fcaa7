// Package currency holds the static ISO 4217 reference data used for
// pricing and gateway amounts.
package currency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Info describes a single currency.
type Info struct {
	Code        string `json:"code"`
	NumericCode int    `json:"numeric_code"`
	Digits      int32  `json:"digits"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
}

// ZeroDecimal reports whether the gateway takes amounts in whole units.
func (i Info) ZeroDecimal() bool {
	return zeroDecimal[i.Code]
}

// ThreeDecimal reports whether the gateway takes amounts in thousandths
// rounded to a multiple of ten.
func (i Info) ThreeDecimal() bool {
	return threeDecimal[i.Code]
}

// Format renders amount quantized to the currency digits, optionally
// prefixed with the symbol.
func (i Info) Format(amount decimal.Decimal, withSymbol bool) string {
	s := amount.StringFixedBank(i.Digits)
	if withSymbol {
		return i.Symbol + s
	}
	return s
}

var zeroDecimal = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true,
	"KMF": true, "KRW": true, "MGA": true, "PYG": true, "RWF": true,
	"UGX": true, "VND": true, "VUV": true, "XAF": true, "XOF": true,
	"XPF": true,
}

var threeDecimal = map[string]bool{
	"BHD": true, "JOD": true, "KWD": true, "OMR": true, "TND": true,
}

var currencies = []Info{
	{"AED", 784, 2, "د.إ", "UAE Dirham"},
	{"ARS", 32, 2, "$", "Argentine Peso"},
	{"AUD", 36, 2, "A$", "Australian Dollar"},
	{"BGN", 975, 2, "лв", "Bulgarian Lev"},
	{"BHD", 48, 3, "BD", "Bahraini Dinar"},
	{"BIF", 108, 0, "FBu", "Burundi Franc"},
	{"BRL", 986, 2, "R$", "Brazilian Real"},
	{"CAD", 124, 2, "CA$", "Canadian Dollar"},
	{"CHF", 756, 2, "CHF", "Swiss Franc"},
	{"CLP", 152, 0, "$", "Chilean Peso"},
	{"CNY", 156, 2, "¥", "Yuan Renminbi"},
	{"COP", 170, 2, "$", "Colombian Peso"},
	{"CZK", 203, 2, "Kč", "Czech Koruna"},
	{"DJF", 262, 0, "Fdj", "Djibouti Franc"},
	{"DKK", 208, 2, "kr", "Danish Krone"},
	{"EGP", 818, 2, "E£", "Egyptian Pound"},
	{"EUR", 978, 2, "€", "Euro"},
	{"GBP", 826, 2, "£", "Pound Sterling"},
	{"GNF", 324, 0, "FG", "Guinean Franc"},
	{"HKD", 344, 2, "HK$", "Hong Kong Dollar"},
	{"HUF", 348, 2, "Ft", "Forint"},
	{"IDR", 360, 2, "Rp", "Rupiah"},
	{"ILS", 376, 2, "₪", "New Israeli Sheqel"},
	{"INR", 356, 2, "₹", "Indian Rupee"},
	{"JOD", 400, 3, "JD", "Jordanian Dinar"},
	{"JPY", 392, 0, "¥", "Yen"},
	{"KES", 404, 2, "KSh", "Kenyan Shilling"},
	{"KMF", 174, 0, "CF", "Comorian Franc"},
	{"KRW", 410, 0, "₩", "Won"},
	{"KWD", 414, 3, "KD", "Kuwaiti Dinar"},
	{"MGA", 969, 0, "Ar", "Malagasy Ariary"},
	{"MXN", 484, 2, "MX$", "Mexican Peso"},
	{"MYR", 458, 2, "RM", "Malaysian Ringgit"},
	{"NGN", 566, 2, "₦", "Naira"},
	{"NOK", 578, 2, "kr", "Norwegian Krone"},
	{"NZD", 554, 2, "NZ$", "New Zealand Dollar"},
	{"OMR", 512, 3, "ر.ع.", "Rial Omani"},
	{"PEN", 604, 2, "S/", "Sol"},
	{"PHP", 608, 2, "₱", "Philippine Peso"},
	{"PLN", 985, 2, "zł", "Zloty"},
	{"PYG", 600, 0, "₲", "Guarani"},
	{"RON", 946, 2, "lei", "Romanian Leu"},
	{"RWF", 646, 0, "FRw", "Rwanda Franc"},
	{"SAR", 682, 2, "﷼", "Saudi Riyal"},
	{"SEK", 752, 2, "kr", "Swedish Krona"},
	{"SGD", 702, 2, "S$", "Singapore Dollar"},
	{"THB", 764, 2, "฿", "Baht"},
	{"TND", 788, 3, "DT", "Tunisian Dinar"},
	{"TRY", 949, 2, "₺", "Turkish Lira"},
	{"UGX", 800, 0, "USh", "Uganda Shilling"},
	{"USD", 840, 2, "$", "US Dollar"},
	{"VND", 704, 0, "₫", "Dong"},
	{"VUV", 548, 0, "VT", "Vatu"},
	{"XAF", 950, 0, "FCFA", "CFA Franc BEAC"},
	{"XOF", 952, 0, "CFA", "CFA Franc BCEAO"},
	{"XPF", 953, 0, "₣", "CFP Franc"},
	{"ZAR", 710, 2, "R", "Rand"},
}

var byCode map[string]Info

func init() {
	byCode = make(map[string]Info, len(currencies))
	for _, c := range currencies {
		if _, dup := byCode[c.Code]; dup {
			panic(fmt.Sprintf("currency: duplicate code %s", c.Code))
		}
		if zeroDecimal[c.Code] != (c.Digits == 0) {
			panic(fmt.Sprintf("currency: %s digits %d disagree with zero-decimal list", c.Code, c.Digits))
		}
		if threeDecimal[c.Code] != (c.Digits == 3) {
			panic(fmt.Sprintf("currency: %s digits %d disagree with three-decimal list", c.Code, c.Digits))
		}
		byCode[c.Code] = c
	}
}

// Lookup returns the currency for code, case-insensitively.
func Lookup(code string) (Info, bool) {
	info, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]
	return info, ok
}

// IsValid reports whether code is a supported currency.
func IsValid(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// All returns every supported currency ordered by code.
func All() []Info {
	out := make([]Info, len(currencies))
	copy(out, currencies)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
