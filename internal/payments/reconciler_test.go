package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdazavala/puntoventa-backend/pkg/enums"
	pkgerrors "github.com/jdazavala/puntoventa-backend/pkg/errors"
)

func TestAddMethodDefaultsToRemainder(t *testing.T) {
	plan := NewPlan()

	entry, err := plan.AddMethod(enums.PaymentMethodCashUSD, 100, 40)
	require.NoError(t, err)
	assert.Equal(t, enums.CurrencyUSD, entry.Currency)
	assert.InDelta(t, 100.0, entry.Amount, 1e-9)

	// Customer only tenders part of it; the edit sticks.
	require.NoError(t, plan.UpdateEntry(0, 60, ""))

	entry, err = plan.AddMethod(enums.PaymentMethodPagoMovil, 100, 40)
	require.NoError(t, err)
	assert.Equal(t, enums.CurrencyVES, entry.Currency)
	assert.InDelta(t, 1600.0, entry.Amount, 1e-9) // (100-60) * 40

	assert.True(t, plan.IsSettled(100, 40))
}

func TestUpdateEntryIsSticky(t *testing.T) {
	plan := NewPlan()
	_, err := plan.AddMethod(enums.PaymentMethodCashUSD, 50, 40)
	require.NoError(t, err)
	_, err = plan.AddMethod(enums.PaymentMethodZelle, 50, 40)
	require.NoError(t, err)

	require.NoError(t, plan.UpdateEntry(0, 30, ""))
	// The second entry keeps whatever it had; nothing re-derives.
	assert.InDelta(t, 0.0, plan.Entries[1].Amount, 1e-9)
	assert.False(t, plan.IsSettled(50, 40))
}

func TestUpdateEntryValidation(t *testing.T) {
	plan := NewPlan()
	_, err := plan.AddMethod(enums.PaymentMethodCashUSD, 10, 40)
	require.NoError(t, err)

	err = plan.UpdateEntry(5, 1, "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = plan.UpdateEntry(0, -1, "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRemoveEntry(t *testing.T) {
	plan := NewPlan()
	_, err := plan.AddMethod(enums.PaymentMethodCashUSD, 10, 40)
	require.NoError(t, err)
	_, err = plan.AddMethod(enums.PaymentMethodZelle, 10, 40)
	require.NoError(t, err)

	require.NoError(t, plan.RemoveEntry(0))
	require.Len(t, plan.Entries, 1)
	assert.Equal(t, enums.PaymentMethodZelle, plan.Entries[0].Method)

	err = plan.RemoveEntry(7)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestApplyCombinedSplitsTotal(t *testing.T) {
	plan := NewPlan()

	err := plan.ApplyCombined(CombinedInput{
		BaseMethod:      enums.PaymentMethodCashUSD,
		SecondaryMethod: enums.PaymentMethodPagoMovil,
		BaseAmount:      30,
		SecondaryRef:    "0414-5551234",
	}, 100, 30, false)
	require.NoError(t, err)

	require.Len(t, plan.Entries, 2)
	assert.InDelta(t, 30.0, plan.Entries[0].Amount, 1e-9)
	assert.InDelta(t, 2100.0, plan.Entries[1].Amount, 1e-9) // (100-30) * 30
	assert.True(t, plan.IsSettled(100, 30))
}

func TestApplyCombinedClampsBase(t *testing.T) {
	tests := []struct {
		name          string
		base          float64
		wantBase      float64
		wantSecondary float64
	}{
		{"base above total", 250, 100, 0},
		{"negative base", -10, 0, 4000},
		{"base equals total", 100, 100, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan := NewPlan()
			err := plan.ApplyCombined(CombinedInput{
				BaseMethod:      enums.PaymentMethodCashUSD,
				SecondaryMethod: enums.PaymentMethodCashVES,
				BaseAmount:      tc.base,
			}, 100, 40, false)
			require.NoError(t, err)
			assert.InDelta(t, tc.wantBase, plan.Entries[0].Amount, 1e-9)
			assert.InDelta(t, tc.wantSecondary, plan.Entries[1].Amount, 1e-9)
		})
	}
}

func TestApplyCombinedRequiresConfirmOverExistingEntries(t *testing.T) {
	plan := NewPlan()
	_, err := plan.AddMethod(enums.PaymentMethodCashUSD, 100, 40)
	require.NoError(t, err)

	input := CombinedInput{
		BaseMethod:      enums.PaymentMethodZelle,
		SecondaryMethod: enums.PaymentMethodCardVES,
		BaseAmount:      40,
	}
	err = plan.ApplyCombined(input, 100, 40, false)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConfirmRequired, pkgerrors.As(err).Code())

	require.NoError(t, plan.ApplyCombined(input, 100, 40, true))
	assert.Equal(t, enums.ReconcileModeCombined, plan.Mode)
}

func TestApplyCombinedRejectsWrongLegCurrencies(t *testing.T) {
	plan := NewPlan()

	err := plan.ApplyCombined(CombinedInput{
		BaseMethod:      enums.PaymentMethodPagoMovil,
		SecondaryMethod: enums.PaymentMethodCashVES,
	}, 100, 40, false)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = plan.ApplyCombined(CombinedInput{
		BaseMethod:      enums.PaymentMethodCashUSD,
		SecondaryMethod: enums.PaymentMethodZelle,
	}, 100, 40, false)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestSetBaseAmountRederivesSecondaryLeg(t *testing.T) {
	plan := NewPlan()
	require.NoError(t, plan.ApplyCombined(CombinedInput{
		BaseMethod:      enums.PaymentMethodCashUSD,
		SecondaryMethod: enums.PaymentMethodTransferVES,
		BaseAmount:      40,
	}, 100, 28, false))

	require.NoError(t, plan.SetBaseAmount(70, 100, 28))
	assert.InDelta(t, 70.0, plan.Entries[0].Amount, 1e-9)
	assert.InDelta(t, 840.0, plan.Entries[1].Amount, 1e-9)

	// Derived leg cannot be edited directly.
	err := plan.UpdateEntry(1, 999, "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestSetModeIsDestructive(t *testing.T) {
	plan := NewPlan()
	_, err := plan.AddMethod(enums.PaymentMethodCashUSD, 100, 40)
	require.NoError(t, err)

	err = plan.SetMode(enums.ReconcileModeCombined, false)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConfirmRequired, pkgerrors.As(err).Code())
	require.Len(t, plan.Entries, 1)

	require.NoError(t, plan.SetMode(enums.ReconcileModeCombined, true))
	assert.Empty(t, plan.Entries)

	// Same mode is a no-op regardless of entries.
	require.NoError(t, plan.SetMode(enums.ReconcileModeCombined, false))
}

func TestCombinedModeRejectsAddMethod(t *testing.T) {
	plan := NewPlan()
	require.NoError(t, plan.ApplyCombined(CombinedInput{
		BaseMethod:      enums.PaymentMethodCashUSD,
		SecondaryMethod: enums.PaymentMethodCashVES,
		BaseAmount:      10,
	}, 100, 40, false))

	_, err := plan.AddMethod(enums.PaymentMethodZelle, 100, 40)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	err = plan.RemoveEntry(0)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestValidateReferences(t *testing.T) {
	plan := NewPlan()
	_, err := plan.AddMethod(enums.PaymentMethodPagoMovil, 100, 40)
	require.NoError(t, err)

	err = plan.ValidateReferences()
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	require.NoError(t, plan.UpdateEntry(0, 4000, "0412-7788990"))
	require.NoError(t, plan.ValidateReferences())
}

func TestClear(t *testing.T) {
	plan := NewPlan()
	require.NoError(t, plan.ApplyCombined(CombinedInput{
		BaseMethod:      enums.PaymentMethodCashUSD,
		SecondaryMethod: enums.PaymentMethodCashVES,
		BaseAmount:      50,
	}, 100, 40, false))

	plan.Clear()
	assert.Equal(t, enums.ReconcileModeSingle, plan.Mode)
	assert.Empty(t, plan.Entries)
}
