package carts

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jdazavala/puntoventa-backend/internal/payments"
	"github.com/jdazavala/puntoventa-backend/pkg/config"
	"github.com/jdazavala/puntoventa-backend/pkg/enums"
	pkgerrors "github.com/jdazavala/puntoventa-backend/pkg/errors"
	"github.com/jdazavala/puntoventa-backend/pkg/logger"
	"github.com/jdazavala/puntoventa-backend/pkg/money"
)

// Store owns the set of concurrent cart sessions at one register and routes
// every mutation to the active session. Exactly one session is active at all
// times and at least one session always exists.
type Store struct {
	mu       sync.Mutex
	cfg      config.CartsConfig
	logg     *logger.Logger
	sessions []*CartSession
	activeID int
}

func NewStore(cfg config.CartsConfig, logg *logger.Logger) (*Store, error) {
	if logg == nil {
		return nil, fmt.Errorf("carts: logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed, err := newSession(1, cfg.WizardSteps)
	if err != nil {
		return nil, err
	}
	return &Store{
		cfg:      cfg,
		logg:     logg,
		sessions: []*CartSession{seed},
		activeID: seed.ID,
	}, nil
}

// CreateSession opens a new empty cart at the smallest unused id and makes it
// active. Rejected once the register already runs the maximum concurrent carts.
func (s *Store) CreateSession(ctx context.Context) (CartSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.cfg.MaxSessions {
		return CartSession{}, pkgerrors.New(
			pkgerrors.CodeCapacity,
			fmt.Sprintf("maximum of %d concurrent carts reached", s.cfg.MaxSessions),
		)
	}

	session, err := newSession(s.smallestFreeID(), s.cfg.WizardSteps)
	if err != nil {
		return CartSession{}, err
	}
	s.sessions = append(s.sessions, session)
	s.sortSessions()
	s.activeID = session.ID

	s.logg.Info(s.logg.WithSessionID(ctx, session.ID), "cart session created")
	return *session, nil
}

// SwitchActive retargets subsequent mutations. Session content is untouched.
func (s *Store) SwitchActive(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byID(id) == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart session %d does not exist", id))
	}
	s.activeID = id
	return nil
}

// CloseSession discards a session. A session holding line items needs the
// caller's confirmation first. Closing the last session replaces it with a
// fresh empty cart at id 1 so the register never has zero sessions.
func (s *Store) CloseSession(ctx context.Context, id int, confirm bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.byID(id)
	if target == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart session %d does not exist", id))
	}
	if !target.IsEmpty() && !confirm {
		return pkgerrors.New(pkgerrors.CodeConfirmRequired, "closing a cart with items discards them")
	}

	kept := s.sessions[:0]
	for _, session := range s.sessions {
		if session.ID != id {
			kept = append(kept, session)
		}
	}
	s.sessions = kept

	if len(s.sessions) == 0 {
		fresh, err := newSession(1, s.cfg.WizardSteps)
		if err != nil {
			return err
		}
		s.sessions = []*CartSession{fresh}
		s.activeID = fresh.ID
	} else if s.activeID == id {
		s.activeID = s.sessions[0].ID
	}

	s.logg.Info(s.logg.WithSessionID(ctx, id), "cart session closed")
	return nil
}

// ActiveID returns the id mutations currently target.
func (s *Store) ActiveID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns a copy of the active session.
func (s *Store) Active() CartSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.active()
}

// Sessions returns copies of every live session ordered by id.
func (s *Store) Sessions() []CartSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]CartSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, *session)
	}
	return out
}

// AddItem appends a line to the active cart, merging quantity when the
// product is already present. Sale carts cap the merged quantity at the
// available stock; quotes are uncapped.
func (s *Store) AddItem(ctx context.Context, item LineItem, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if item.UnitPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	session := s.active()
	capped := session.SaleKind == enums.SaleKindSale
	if capped && stock <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is out of stock")
	}

	for i := range session.Items {
		if session.Items[i].ProductID == item.ProductID {
			merged := session.Items[i].Quantity + item.Quantity
			if capped && merged > stock {
				merged = stock
			}
			session.Items[i].Quantity = merged
			return nil
		}
	}

	if capped && item.Quantity > stock {
		item.Quantity = stock
	}
	session.Items = append(session.Items, item)
	return nil
}

// UpdateItemQuantity sets an existing line's quantity, honoring the stock cap
// for sale carts.
func (s *Store) UpdateItemQuantity(ctx context.Context, index, quantity, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.active()
	if index < 0 || index >= len(session.Items) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "line item does not exist")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if session.SaleKind == enums.SaleKindSale && quantity > stock {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds available stock")
	}
	session.Items[index].Quantity = quantity
	return nil
}

func (s *Store) RemoveItem(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.active()
	if index < 0 || index >= len(session.Items) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "line item does not exist")
	}
	session.Items = append(session.Items[:index], session.Items[index+1:]...)
	return nil
}

// SetCustomer links the active cart to a customer; nil reverts to quick sale.
func (s *Store) SetCustomer(ctx context.Context, customer *CustomerRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active().Customer = customer
}

func (s *Store) SetTerms(ctx context.Context, terms SaleTerms) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !terms.Timing.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment timing %q", terms.Timing))
	}
	if terms.Timing == enums.PaymentTimingDeferred && terms.DeferredDays <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "deferred terms need a positive day count")
	}
	s.active().Terms = terms
	return nil
}

func (s *Store) SetDocumentKind(ctx context.Context, kind enums.DocumentKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown document kind %q", kind))
	}
	s.active().DocumentKind = kind
	return nil
}

func (s *Store) SetSaleKind(ctx context.Context, kind enums.SaleKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown sale kind %q", kind))
	}
	s.active().SaleKind = kind
	return nil
}

// AddPayment appends a payment method to the active cart, defaulting its
// amount to the outstanding remainder in the method's native currency.
func (s *Store) AddPayment(ctx context.Context, method enums.PaymentMethod, rate float64) (payments.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.active()
	totals := session.ComputeTotals(rate)
	entry, err := session.Payments.AddMethod(method, totals.Total, rate)
	if err != nil {
		return payments.Entry{}, err
	}
	return *entry, nil
}

func (s *Store) UpdatePayment(ctx context.Context, index int, amount float64, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active().Payments.UpdateEntry(index, amount, reference)
}

func (s *Store) RemovePayment(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active().Payments.RemoveEntry(index)
}

// ApplyCombinedPayment atomically replaces the active cart's payment plan with
// the two-currency split.
func (s *Store) ApplyCombinedPayment(ctx context.Context, input payments.CombinedInput, rate float64, confirm bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.active()
	totals := session.ComputeTotals(rate)
	return session.Payments.ApplyCombined(input, totals.Total, rate, confirm)
}

func (s *Store) SetCombinedBase(ctx context.Context, baseAmount, rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.active()
	totals := session.ComputeTotals(rate)
	return session.Payments.SetBaseAmount(baseAmount, totals.Total, rate)
}

func (s *Store) SetPaymentMode(ctx context.Context, mode enums.ReconcileMode, confirm bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active().Payments.SetMode(mode, confirm)
}

// AdvanceWizard moves the active cart one step forward, applying this step's
// exit guard.
func (s *Store) AdvanceWizard(ctx context.Context, rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.active()
	return session.Wizard.Advance(s.guardFor(session, rate))
}

func (s *Store) RetreatWizard(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active().Wizard.Retreat()
}

func (s *Store) JumpWizard(ctx context.Context, step int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active().Wizard.JumpTo(step)
}

// Totals computes the active cart's money snapshot. A corrupted figure wipes
// the cart's volatile fields and reports clean zeros; a frozen NaN total
// cannot be recovered through normal register actions.
func (s *Store) Totals(ctx context.Context, rate float64) Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.active()
	totals := session.ComputeTotals(rate)
	if money.IsCorrupt(totals.Subtotal, totals.Tax, totals.Total, totals.TotalVES, totals.AmountPaid, totals.Remaining) {
		s.logg.Warn(
			s.logg.WithSessionID(ctx, session.ID),
			"numeric corruption detected, resetting cart items and payments",
		)
		session.resetVolatile()
		totals = session.ComputeTotals(rate)
	}
	return totals
}

// FinalizeReset clears the active cart to the fresh step-1 state after its
// sale records were persisted. The slot and id are preserved.
func (s *Store) FinalizeReset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.active()
	session.clear()
	s.logg.Info(s.logg.WithSessionID(ctx, session.ID), "cart session reset after finalize")
}

func (s *Store) guardFor(session *CartSession, rate float64) func(current int) error {
	return func(current int) error {
		switch current {
		case 1:
			if len(session.Items) == 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "add at least one item before continuing")
			}
		case paymentStep(session.Wizard.Steps):
			if session.Terms.IsCredit() || session.SaleKind == enums.SaleKindQuote {
				return nil
			}
			totals := session.ComputeTotals(rate)
			if !totals.Settled {
				return pkgerrors.New(pkgerrors.CodePaymentIncomplete, "payments do not cover the total")
			}
		}
		return nil
	}
}

// paymentStep locates the payment stage: the step before confirmation in the
// five-step layout, the terminal step in the three-step layout.
func paymentStep(steps int) int {
	if steps >= 4 {
		return steps - 1
	}
	return steps
}

func (s *Store) active() *CartSession {
	if session := s.byID(s.activeID); session != nil {
		return session
	}
	// The invariant guarantees the active id exists; fall back defensively.
	s.activeID = s.sessions[0].ID
	return s.sessions[0]
}

func (s *Store) byID(id int) *CartSession {
	for _, session := range s.sessions {
		if session.ID == id {
			return session
		}
	}
	return nil
}

func (s *Store) smallestFreeID() int {
	taken := make(map[int]bool, len(s.sessions))
	for _, session := range s.sessions {
		taken[session.ID] = true
	}
	for id := 1; ; id++ {
		if !taken[id] {
			return id
		}
	}
}

func (s *Store) sortSessions() {
	sort.Slice(s.sessions, func(i, j int) bool {
		return s.sessions[i].ID < s.sessions[j].ID
	})
}
