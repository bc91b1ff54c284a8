// Package currencypkg provides common currency related functionality for apps.
package currencypkg

import "github.com/shopspring/decimal"

// Constants for all supported currencies.
const (
	BTC  = "BTC"
	LTC  = "LTC"
	USDT = "USDT"
)

// SupportedCurrencies holds all the supported currencies.
var SupportedCurrencies = []string{
	BTC,
	LTC,
	USDT,
}

// precision is the number of fractional digits shown to users.
var precision = map[string]int32{
	BTC:  8,
	LTC:  8,
	USDT: 6,
}

// IsSupportedCurrency returns true if the currncy is supported.
func IsSupportedCurrency(currency string) bool {
	for _, c := range SupportedCurrencies {
		if c == currency {
			return true
		}
	}

	return false
}

// Precision returns the display precision of the currency, 8 for unknown ones.
func Precision(currency string) int32 {
	if p, ok := precision[currency]; ok {
		return p
	}

	return 8
}

// Display formats the amount with the currency display precision.
//
// Storage always keeps the full precision; rounding happens only here.
func Display(amount decimal.Decimal, currency string) string {
	return amount.RoundDown(Precision(currency)).StringFixed(Precision(currency))
}
