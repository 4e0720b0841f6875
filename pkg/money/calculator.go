package money

import (
	"math"

	"github.com/jdazavala/puntoventa-backend/pkg/enums"
)

// TaxRate is the fixed IVA rate applied to invoice documents.
const TaxRate = 0.16

// SettleEpsilon absorbs floating-point drift when comparing paid totals.
// One base-currency cent: exact equality on floating sums spuriously fails.
const SettleEpsilon = 0.01

// Line is the slice of a line item the calculator needs.
type Line struct {
	UnitPrice float64
	Quantity  int
}

// Payment is the slice of a payment entry the calculator needs.
type Payment struct {
	Amount   float64
	Currency enums.Currency
}

// Subtotal sums unit price times quantity over all lines.
func Subtotal(lines []Line) float64 {
	var sum float64
	for _, line := range lines {
		sum += line.UnitPrice * float64(line.Quantity)
	}
	return sum
}

// Tax returns the IVA share of a subtotal, or 0 when tax does not apply.
func Tax(subtotal float64, applies bool) float64 {
	if !applies {
		return 0
	}
	return subtotal * TaxRate
}

// Total combines a subtotal with its tax share.
func Total(subtotal, tax float64) float64 {
	return subtotal + tax
}

// Convert translates a base-currency amount into the secondary currency.
// A non-positive rate means the live feed is unavailable: display zero,
// never error, so a stale feed cannot freeze the cashier.
func Convert(amountBase, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return amountBase * rate
}

// AmountPaid normalizes every payment into base currency and sums them.
// Secondary-currency entries divide by the active rate; when no rate is
// available they contribute nothing rather than a bogus figure.
func AmountPaid(payments []Payment, rate float64) float64 {
	var sum float64
	for _, p := range payments {
		if p.Currency.IsBase() {
			sum += p.Amount
			continue
		}
		if rate > 0 {
			sum += p.Amount / rate
		}
	}
	return sum
}

// IsSettled reports whether the paid amount covers the total within SettleEpsilon.
func IsSettled(total, paid float64) bool {
	return paid >= total-SettleEpsilon
}

// IsCorrupt flags NaN or infinite amounts leaking out of a calculation.
// With validated inputs at every mutation boundary this should be unreachable;
// it is kept as a defensive assertion for the session reset path.
func IsCorrupt(amounts ...float64) bool {
	for _, amount := range amounts {
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			return true
		}
	}
	return false
}
