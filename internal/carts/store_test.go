package carts

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdazavala/puntoventa-backend/internal/payments"
	"github.com/jdazavala/puntoventa-backend/pkg/config"
	"github.com/jdazavala/puntoventa-backend/pkg/enums"
	pkgerrors "github.com/jdazavala/puntoventa-backend/pkg/errors"
	"github.com/jdazavala/puntoventa-backend/pkg/logger"
)

func testConfig() config.CartsConfig {
	return config.CartsConfig{MaxSessions: 5, WizardSteps: 5}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(testConfig(), logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard}))
	require.NoError(t, err)
	return store
}

func testItem(price float64, qty int) LineItem {
	return LineItem{
		ProductID:   uuid.New(),
		SKU:         "SKU-1",
		Description: "Harina de maiz 1kg",
		UnitPrice:   price,
		Quantity:    qty,
	}
}

func TestStoreStartsWithOneActiveSession(t *testing.T) {
	store := newTestStore(t)

	sessions := store.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].ID)
	assert.Equal(t, 1, store.ActiveID())
	assert.True(t, sessions[0].IsEmpty())
}

func TestCreateSessionCapacity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := store.CreateSession(ctx)
		require.NoError(t, err)
	}
	require.Len(t, store.Sessions(), 5)

	_, err := store.CreateSession(ctx)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeCapacity, pkgerrors.As(err).Code())
	assert.Len(t, store.Sessions(), 5)
}

func TestCreateSessionReusesSmallestFreeID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx) // id 2
	require.NoError(t, err)
	_, err = store.CreateSession(ctx) // id 3
	require.NoError(t, err)

	require.NoError(t, store.CloseSession(ctx, 2, false))

	created, err := store.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, created.ID)
	assert.Equal(t, 2, store.ActiveID())
}

func TestSwitchActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, store.ActiveID())

	require.NoError(t, store.SwitchActive(ctx, 1))
	assert.Equal(t, 1, store.ActiveID())

	err = store.SwitchActive(ctx, 9)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCloseSessionNeedsConfirmWhenNotEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, testItem(2.5, 1), 10))

	err := store.CloseSession(ctx, 1, false)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConfirmRequired, pkgerrors.As(err).Code())

	require.NoError(t, store.CloseSession(ctx, 1, true))
}

func TestCloseLastSessionLeavesFreshSessionOne(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx) // id 2, active
	require.NoError(t, err)
	require.NoError(t, store.AddItem(ctx, testItem(4, 2), 10))
	require.NoError(t, store.CloseSession(ctx, 1, false))

	require.NoError(t, store.CloseSession(ctx, 2, true))

	sessions := store.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].ID)
	assert.Equal(t, 1, store.ActiveID())
	assert.True(t, sessions[0].IsEmpty())
}

func TestCloseActiveSessionShiftsActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx) // id 2
	require.NoError(t, err)
	_, err = store.CreateSession(ctx) // id 3, active
	require.NoError(t, err)

	require.NoError(t, store.CloseSession(ctx, 3, false))
	assert.Equal(t, 1, store.ActiveID())
}

func TestAddItemMergesAndCapsStock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item := testItem(3, 2)
	require.NoError(t, store.AddItem(ctx, item, 5))
	item.Quantity = 10
	require.NoError(t, store.AddItem(ctx, item, 5))

	active := store.Active()
	require.Len(t, active.Items, 1)
	assert.Equal(t, 5, active.Items[0].Quantity)
}

func TestAddItemQuoteUncapped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSaleKind(ctx, enums.SaleKindQuote))
	require.NoError(t, store.AddItem(ctx, testItem(3, 500), 0))

	active := store.Active()
	require.Len(t, active.Items, 1)
	assert.Equal(t, 500, active.Items[0].Quantity)
}

func TestAddItemRejectsOutOfStockSale(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.AddItem(ctx, testItem(3, 1), 0)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestWizardGuardsThroughStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Empty cart cannot leave the products step.
	err := store.AdvanceWizard(ctx, 40)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	require.NoError(t, store.AddItem(ctx, testItem(10, 1), 5))
	require.NoError(t, store.AdvanceWizard(ctx, 40)) // -> customer
	require.NoError(t, store.AdvanceWizard(ctx, 40)) // -> terms
	require.NoError(t, store.AdvanceWizard(ctx, 40)) // -> payment

	// Unsettled immediate sale cannot leave the payment step.
	err = store.AdvanceWizard(ctx, 40)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodePaymentIncomplete, pkgerrors.As(err).Code())

	_, err = store.AddPayment(ctx, enums.PaymentMethodCashUSD, 40)
	require.NoError(t, err)
	require.NoError(t, store.AdvanceWizard(ctx, 40)) // -> confirmation
	assert.True(t, store.Active().Wizard.AtTerminal())
}

func TestWizardCreditSkipsSettlementGuard(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, testItem(10, 1), 5))
	require.NoError(t, store.SetTerms(ctx, SaleTerms{Timing: enums.PaymentTimingDeferred, DeferredDays: 15}))
	require.NoError(t, store.AdvanceWizard(ctx, 40))
	require.NoError(t, store.AdvanceWizard(ctx, 40))
	require.NoError(t, store.AdvanceWizard(ctx, 40))
	require.NoError(t, store.AdvanceWizard(ctx, 40))
	assert.True(t, store.Active().Wizard.AtTerminal())
}

func TestTotalsSingleRateSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, testItem(10, 2), 5))
	require.NoError(t, store.SetDocumentKind(ctx, enums.DocumentKindInvoice))

	totals := store.Totals(ctx, 40)
	assert.InDelta(t, 20.0, totals.Subtotal, 1e-9)
	assert.InDelta(t, 3.2, totals.Tax, 1e-9)
	assert.InDelta(t, 23.2, totals.Total, 1e-9)
	assert.InDelta(t, 928.0, totals.TotalVES, 1e-9)
	assert.InDelta(t, 40.0, totals.ExchangeRate, 1e-9)
	assert.False(t, totals.Settled)
}

func TestTotalsCorruptionResetsVolatileFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.SetCustomer(ctx, &CustomerRef{ID: uuid.New(), Name: "Bodega La Esquina"})
	require.NoError(t, store.AddItem(ctx, testItem(10, 1), 5))

	// Poison a line directly through the session pointer the same way a
	// damaged restore could.
	store.mu.Lock()
	store.active().Items[0].UnitPrice = math.NaN()
	store.mu.Unlock()

	totals := store.Totals(ctx, 40)
	assert.InDelta(t, 0.0, totals.Total, 1e-9)

	active := store.Active()
	assert.Empty(t, active.Items)
	assert.Empty(t, active.Payments.Entries)
	assert.NotNil(t, active.Customer)
}

func TestSetTermsValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.SetTerms(ctx, SaleTerms{Timing: enums.PaymentTimingDeferred})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = store.SetTerms(ctx, SaleTerms{Timing: "someday"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCombinedPaymentThroughStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, testItem(100, 1), 5))

	err := store.ApplyCombinedPayment(ctx, payments.CombinedInput{
		BaseMethod:      enums.PaymentMethodCashUSD,
		SecondaryMethod: enums.PaymentMethodPagoMovil,
		BaseAmount:      30,
		SecondaryRef:    "0414-5551234",
	}, 40, false)
	require.NoError(t, err)

	active := store.Active()
	require.Len(t, active.Payments.Entries, 2)
	assert.InDelta(t, 30.0, active.Payments.Entries[0].Amount, 1e-9)
	assert.InDelta(t, 2800.0, active.Payments.Entries[1].Amount, 1e-9)

	require.NoError(t, store.SetCombinedBase(ctx, 100, 40))
	active = store.Active()
	assert.InDelta(t, 0.0, active.Payments.Entries[1].Amount, 1e-9)
}

func TestFinalizeResetPreservesSlot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx) // id 2, active
	require.NoError(t, err)
	require.NoError(t, store.AddItem(ctx, testItem(10, 1), 5))
	store.SetCustomer(ctx, &CustomerRef{ID: uuid.New(), Name: "Maria"})

	store.FinalizeReset(ctx)

	active := store.Active()
	assert.Equal(t, 2, active.ID)
	assert.True(t, active.IsEmpty())
	assert.Nil(t, active.Customer)
	assert.Equal(t, 1, active.Wizard.Current)
	assert.Len(t, store.Sessions(), 2)
}
