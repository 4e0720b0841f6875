package carts

import (
	"github.com/google/uuid"

	"github.com/jdazavala/puntoventa-backend/internal/payments"
	"github.com/jdazavala/puntoventa-backend/internal/wizard"
	"github.com/jdazavala/puntoventa-backend/pkg/enums"
	"github.com/jdazavala/puntoventa-backend/pkg/money"
)

// LineItem is a cart line holding denormalized display fields captured at
// add-time. Later catalog edits never reach an open cart.
type LineItem struct {
	ProductID   uuid.UUID `json:"product_id"`
	SKU         string    `json:"sku"`
	Description string    `json:"description"`
	Brand       string    `json:"brand"`
	UnitPrice   float64   `json:"unit_price"`
	Quantity    int       `json:"quantity"`
}

// CustomerRef links a cart to a customer record; a nil reference means
// quick sale.
type CustomerRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	TaxID string    `json:"tax_id"`
	Phone string    `json:"phone"`
}

// SaleTerms captures the payment timing of a cart. DeferredDays is only
// meaningful when Timing is deferred.
type SaleTerms struct {
	Timing       enums.PaymentTiming `json:"timing"`
	DeferredDays int                 `json:"deferred_days"`
}

// IsCredit reports whether the cart finalizes as a credit sale.
func (t SaleTerms) IsCredit() bool {
	return t.Timing == enums.PaymentTimingDeferred
}

// CartSession is one in-progress sale being assembled at a register.
type CartSession struct {
	ID           int                `json:"id"`
	Items        []LineItem         `json:"items"`
	Customer     *CustomerRef       `json:"customer,omitempty"`
	Terms        SaleTerms          `json:"terms"`
	DocumentKind enums.DocumentKind `json:"document_kind"`
	SaleKind     enums.SaleKind     `json:"sale_kind"`
	Payments     payments.Plan      `json:"payments"`
	Wizard       wizard.Machine     `json:"wizard"`
}

func newSession(id, wizardSteps int) (*CartSession, error) {
	machine, err := wizard.New(wizardSteps)
	if err != nil {
		return nil, err
	}
	return &CartSession{
		ID:           id,
		Items:        []LineItem{},
		Terms:        SaleTerms{Timing: enums.PaymentTimingImmediate},
		DocumentKind: enums.DocumentKindOrder,
		SaleKind:     enums.SaleKindSale,
		Payments:     payments.NewPlan(),
		Wizard:       machine,
	}, nil
}

// IsEmpty reports whether closing the session would lose work.
func (s *CartSession) IsEmpty() bool {
	return len(s.Items) == 0
}

// TaxApplies is true only for committed invoice sales; quotes and plain
// orders carry no tax.
func (s *CartSession) TaxApplies() bool {
	return s.DocumentKind == enums.DocumentKindInvoice && s.SaleKind != enums.SaleKindQuote
}

// Totals is a derived financial snapshot of one session at one rate.
type Totals struct {
	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	Total        float64 `json:"total"`
	TotalVES     float64 `json:"total_ves"`
	AmountPaid   float64 `json:"amount_paid"`
	Remaining    float64 `json:"remaining"`
	Settled      bool    `json:"settled"`
	ExchangeRate float64 `json:"exchange_rate"`
}

// ComputeTotals derives the session's money figures using a single rate
// snapshot so every field in the result reflects the same rate.
func (s *CartSession) ComputeTotals(rate float64) Totals {
	lines := make([]money.Line, 0, len(s.Items))
	for _, item := range s.Items {
		lines = append(lines, money.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
	}

	subtotal := money.Subtotal(lines)
	tax := money.Tax(subtotal, s.TaxApplies())
	total := money.Total(subtotal, tax)
	paid := s.Payments.AmountPaidBase(rate)

	return Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		Total:        total,
		TotalVES:     money.Convert(total, rate),
		AmountPaid:   paid,
		Remaining:    s.Payments.Remaining(total, rate),
		Settled:      money.IsSettled(total, paid),
		ExchangeRate: rate,
	}
}

// resetVolatile wipes the fields a corrupted numeric pipeline could poison.
// Identity, customer, terms and wizard position survive.
func (s *CartSession) resetVolatile() {
	s.Items = []LineItem{}
	s.Payments.Clear()
}

// clear returns the session to the fresh post-finalize state.
func (s *CartSession) clear() {
	s.Items = []LineItem{}
	s.Customer = nil
	s.Terms = SaleTerms{Timing: enums.PaymentTimingImmediate}
	s.DocumentKind = enums.DocumentKindOrder
	s.SaleKind = enums.SaleKindSale
	s.Payments.Clear()
	s.Wizard.Reset()
}
