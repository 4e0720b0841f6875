package enums

import "fmt"

// PaymentTiming captures whether a sale settles at the counter or on credit terms.
type PaymentTiming string

const (
	PaymentTimingImmediate PaymentTiming = "immediate"
	PaymentTimingDeferred  PaymentTiming = "deferred"
)

var validPaymentTimings = []PaymentTiming{
	PaymentTimingImmediate,
	PaymentTimingDeferred,
}

// String implements fmt.Stringer.
func (p PaymentTiming) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentTiming.
func (p PaymentTiming) IsValid() bool {
	for _, candidate := range validPaymentTimings {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentTiming converts raw input into a PaymentTiming.
func ParsePaymentTiming(value string) (PaymentTiming, error) {
	for _, candidate := range validPaymentTimings {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment timing %q", value)
}
