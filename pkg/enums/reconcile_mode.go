package enums

import "fmt"

// ReconcileMode selects how the payment reconciler allocates amounts: one
// editable entry per method, or a fixed two-leg split across both currencies.
type ReconcileMode string

const (
	ReconcileModeSingle   ReconcileMode = "single"
	ReconcileModeCombined ReconcileMode = "combined"
)

var validReconcileModes = []ReconcileMode{
	ReconcileModeSingle,
	ReconcileModeCombined,
}

// String implements fmt.Stringer.
func (r ReconcileMode) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReconcileMode.
func (r ReconcileMode) IsValid() bool {
	for _, candidate := range validReconcileModes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReconcileMode converts raw input into a ReconcileMode.
func ParseReconcileMode(value string) (ReconcileMode, error) {
	for _, candidate := range validReconcileModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reconcile mode %q", value)
}
