package types

import "github.com/jdazavala/puntoventa-backend/pkg/enums"

// PaymentPlanEntry is one settled leg of a sale's payment plan as persisted
// on the sale record. Amounts are denominated in the entry's native currency.
type PaymentPlanEntry struct {
	Method    enums.PaymentMethod `json:"method"`
	Currency  enums.Currency      `json:"currency"`
	Amount    float64             `json:"amount"`
	Reference string              `json:"reference,omitempty"`
}

// PaymentPlan is stored as a jsonb column on the first record of a document batch.
type PaymentPlan []PaymentPlanEntry

// References collects the non-empty reference codes across the plan.
func (p PaymentPlan) References() []string {
	var refs []string
	for _, entry := range p {
		if entry.Reference != "" {
			refs = append(refs, entry.Reference)
		}
	}
	return refs
}
