package payments

import (
	"fmt"
	"strings"

	"github.com/jdazavala/puntoventa-backend/pkg/enums"
	pkgerrors "github.com/jdazavala/puntoventa-backend/pkg/errors"
	"github.com/jdazavala/puntoventa-backend/pkg/money"
)

// Entry is one payment leg on an open cart, denominated in the method's
// native currency.
type Entry struct {
	Method    enums.PaymentMethod `json:"method"`
	Currency  enums.Currency      `json:"currency"`
	Amount    float64             `json:"amount"`
	Reference string              `json:"reference,omitempty"`
}

// Plan is the ordered payment-entry list of a cart plus its reconciliation
// mode. In single mode entries are individually editable; in combined mode the
// plan is exactly two derived legs and only the base leg accepts input.
type Plan struct {
	Mode    enums.ReconcileMode `json:"mode"`
	Entries []Entry             `json:"entries"`
}

// NewPlan returns an empty single-currency plan.
func NewPlan() Plan {
	return Plan{Mode: enums.ReconcileModeSingle, Entries: nil}
}

// AmountPaidBase sums the plan in base currency at the supplied rate.
func (p *Plan) AmountPaidBase(rate float64) float64 {
	legs := make([]money.Payment, 0, len(p.Entries))
	for _, entry := range p.Entries {
		legs = append(legs, money.Payment{Amount: entry.Amount, Currency: entry.Currency})
	}
	return money.AmountPaid(legs, rate)
}

// Remaining returns the outstanding base-currency balance, floored at zero.
func (p *Plan) Remaining(total, rate float64) float64 {
	remaining := total - p.AmountPaidBase(rate)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsSettled reports whether the plan covers the total within the cent epsilon.
func (p *Plan) IsSettled(total, rate float64) bool {
	return money.IsSettled(total, p.AmountPaidBase(rate))
}

// AddMethod appends an entry for the method, defaulting its amount to the
// outstanding remainder converted into the method's native currency. The
// cashier edits the amount afterwards when the customer tenders less.
func (p *Plan) AddMethod(method enums.PaymentMethod, total, rate float64) (*Entry, error) {
	if p.Mode != enums.ReconcileModeSingle {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "combined plans do not accept extra methods")
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", method))
	}

	remaining := p.Remaining(total, rate)
	amount := remaining
	currency := method.NativeCurrency()
	if !currency.IsBase() {
		amount = money.Convert(remaining, rate)
	}

	p.Entries = append(p.Entries, Entry{
		Method:   method,
		Currency: currency,
		Amount:   amount,
	})
	return &p.Entries[len(p.Entries)-1], nil
}

// UpdateEntry edits the amount and reference of an existing entry. Other
// entries are never re-derived: manual amounts are sticky.
func (p *Plan) UpdateEntry(index int, amount float64, reference string) error {
	if index < 0 || index >= len(p.Entries) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment entry does not exist")
	}
	if amount < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount cannot be negative")
	}
	if p.Mode == enums.ReconcileModeCombined && index != 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "the derived leg of a combined plan is not editable")
	}
	p.Entries[index].Amount = amount
	p.Entries[index].Reference = strings.TrimSpace(reference)
	return nil
}

// RemoveEntry deletes one entry; in combined mode individual legs cannot be
// removed, the whole plan is replaced instead.
func (p *Plan) RemoveEntry(index int) error {
	if p.Mode == enums.ReconcileModeCombined {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "combined plans are replaced, not edited")
	}
	if index < 0 || index >= len(p.Entries) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment entry does not exist")
	}
	p.Entries = append(p.Entries[:index], p.Entries[index+1:]...)
	return nil
}

// CombinedInput shapes an atomic two-leg split of a total across both
// currencies. BaseAmount is clamped to [0, total]; the secondary leg is always
// derived as (total - base) * rate.
type CombinedInput struct {
	BaseMethod      enums.PaymentMethod
	SecondaryMethod enums.PaymentMethod
	BaseAmount      float64
	BaseReference   string
	SecondaryRef    string
}

// ApplyCombined atomically replaces the entire entry list with the two-leg
// split. Any previously accumulated payments are discarded without recovery,
// so the caller must pass confirm when entries already exist.
func (p *Plan) ApplyCombined(input CombinedInput, total, rate float64, confirm bool) error {
	if !input.BaseMethod.NativeCurrency().IsBase() {
		return pkgerrors.New(pkgerrors.CodeValidation, "the first leg must use a base-currency method")
	}
	if input.SecondaryMethod.NativeCurrency().IsBase() {
		return pkgerrors.New(pkgerrors.CodeValidation, "the second leg must use a secondary-currency method")
	}
	if len(p.Entries) > 0 && p.Mode == enums.ReconcileModeSingle && !confirm {
		return pkgerrors.New(pkgerrors.CodeConfirmRequired, "switching to combined mode discards existing payments")
	}

	base := input.BaseAmount
	if base < 0 {
		base = 0
	}
	if base > total {
		base = total
	}
	secondary := money.Convert(total-base, rate)

	p.Mode = enums.ReconcileModeCombined
	p.Entries = []Entry{
		{
			Method:    input.BaseMethod,
			Currency:  input.BaseMethod.NativeCurrency(),
			Amount:    base,
			Reference: strings.TrimSpace(input.BaseReference),
		},
		{
			Method:    input.SecondaryMethod,
			Currency:  input.SecondaryMethod.NativeCurrency(),
			Amount:    secondary,
			Reference: strings.TrimSpace(input.SecondaryRef),
		},
	}
	return nil
}

// SetBaseAmount re-derives the combined split when the cashier edits the base
// leg. The secondary leg is recomputed, never independently set.
func (p *Plan) SetBaseAmount(baseAmount, total, rate float64) error {
	if p.Mode != enums.ReconcileModeCombined || len(p.Entries) != 2 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "plan is not in combined mode")
	}
	base := baseAmount
	if base < 0 {
		base = 0
	}
	if base > total {
		base = total
	}
	p.Entries[0].Amount = base
	p.Entries[1].Amount = money.Convert(total-base, rate)
	return nil
}

// SetMode switches reconciliation modes. Switching is destructive: the entry
// list is cleared, which requires confirmation when entries exist.
func (p *Plan) SetMode(mode enums.ReconcileMode, confirm bool) error {
	if !mode.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown reconcile mode %q", mode))
	}
	if mode == p.Mode {
		return nil
	}
	if len(p.Entries) > 0 && !confirm {
		return pkgerrors.New(pkgerrors.CodeConfirmRequired, "switching reconciliation modes discards existing payments")
	}
	p.Mode = mode
	p.Entries = nil
	return nil
}

// ValidateReferences rejects entries whose method mandates a reference code
// that was not captured.
func (p *Plan) ValidateReferences() error {
	for i, entry := range p.Entries {
		if entry.Method.RequiresReference() && strings.TrimSpace(entry.Reference) == "" {
			return pkgerrors.New(
				pkgerrors.CodeValidation,
				fmt.Sprintf("payment %d (%s) requires a reference code", i+1, entry.Method),
			)
		}
	}
	return nil
}

// Clear drops every entry and returns the plan to single mode.
func (p *Plan) Clear() {
	p.Mode = enums.ReconcileModeSingle
	p.Entries = nil
}
