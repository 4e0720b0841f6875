package enums

import "fmt"

// DocumentKind distinguishes a plain delivery order from a fiscal tax invoice.
// Tax is only assessed on invoices.
type DocumentKind string

const (
	DocumentKindOrder   DocumentKind = "order"
	DocumentKindInvoice DocumentKind = "invoice"
)

var validDocumentKinds = []DocumentKind{
	DocumentKindOrder,
	DocumentKindInvoice,
}

// String implements fmt.Stringer.
func (d DocumentKind) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DocumentKind.
func (d DocumentKind) IsValid() bool {
	for _, candidate := range validDocumentKinds {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentKind converts raw input into a DocumentKind.
func ParseDocumentKind(value string) (DocumentKind, error) {
	for _, candidate := range validDocumentKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document kind %q", value)
}
