package enums

import "fmt"

// SaleKind separates committed sales from price quotes. Quotes never cap
// quantities by stock and expire at end of day.
type SaleKind string

const (
	SaleKindSale  SaleKind = "sale"
	SaleKindQuote SaleKind = "quote"
)

var validSaleKinds = []SaleKind{
	SaleKindSale,
	SaleKindQuote,
}

// String implements fmt.Stringer.
func (s SaleKind) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleKind.
func (s SaleKind) IsValid() bool {
	for _, candidate := range validSaleKinds {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleKind converts raw input into a SaleKind.
func ParseSaleKind(value string) (SaleKind, error) {
	for _, candidate := range validSaleKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale kind %q", value)
}
