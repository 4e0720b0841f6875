package enums

import "fmt"

// Currency represents the monetary denominations the engine computes in.
// USD is the base currency every catalog price is stored in; VES is the
// secondary currency derived through the live exchange rate.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyVES Currency = "VES"
)

var validCurrencies = []Currency{
	CurrencyUSD,
	CurrencyVES,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsBase reports whether the currency is the unit of account.
func (c Currency) IsBase() bool {
	return c == CurrencyUSD
}

// ParseCurrency converts a raw string into a Currency.
func ParseCurrency(value string) (Currency, error) {
	for _, candidate := range validCurrencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
