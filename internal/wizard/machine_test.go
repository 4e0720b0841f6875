package wizard

import (
	"testing"

	pkgerrors "github.com/jdazavala/puntoventa-backend/pkg/errors"
)

func TestNewRejectsTooFewSteps(t *testing.T) {
	t.Parallel()

	if _, err := New(1); err == nil {
		t.Fatal("expected error for single-step wizard")
	}
	m, err := New(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Current != 1 || m.HighWater != 1 {
		t.Fatalf("expected fresh machine on step 1, got %+v", m)
	}
}

func TestAdvanceRunsGuardAndStops(t *testing.T) {
	t.Parallel()

	m, _ := New(3)

	blocked := pkgerrors.New(pkgerrors.CodeValidation, "cart has no items")
	if err := m.Advance(func(int) error { return blocked }); err != blocked {
		t.Fatalf("expected guard error, got %v", err)
	}
	if m.Current != 1 {
		t.Fatalf("blocked advance must not move, current=%d", m.Current)
	}

	if err := m.Advance(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Current != 2 || m.HighWater != 2 {
		t.Fatalf("expected step 2, got %+v", m)
	}

	if err := m.Advance(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Advance(nil); err == nil {
		t.Fatal("expected advance past final step to fail")
	}
	if m.Current != 3 {
		t.Fatalf("current must stay capped at final step, got %d", m.Current)
	}
}

func TestRetreatAlwaysAllowedAboveFirst(t *testing.T) {
	t.Parallel()

	m, _ := New(5)
	if err := m.Retreat(); err == nil {
		t.Fatal("retreat below step 1 must fail")
	}

	_ = m.Advance(nil)
	_ = m.Advance(nil)
	if err := m.Retreat(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Current != 2 || m.HighWater != 3 {
		t.Fatalf("retreat must keep high water, got %+v", m)
	}
}

func TestJumpToGatedByHighWater(t *testing.T) {
	t.Parallel()

	m, _ := New(5)
	_ = m.Advance(nil) // 2

	if err := m.JumpTo(3); err == nil {
		t.Fatal("jump beyond high water must fail")
	}

	_ = m.Advance(nil) // 3, high water 3
	_ = m.Retreat()    // back to 2

	if err := m.JumpTo(3); err != nil {
		t.Fatalf("revisiting a reached step must succeed: %v", err)
	}
	if m.Current != 3 {
		t.Fatalf("expected step 3, got %d", m.Current)
	}

	if err := m.JumpTo(0); err == nil {
		t.Fatal("jump out of range must fail")
	}
	if err := m.JumpTo(6); err == nil {
		t.Fatal("jump out of range must fail")
	}
}

func TestTerminalStepNotJumpable(t *testing.T) {
	t.Parallel()

	m, _ := New(3)
	_ = m.Advance(nil)
	_ = m.Advance(nil) // terminal, high water 3
	_ = m.Retreat()

	if err := m.JumpTo(3); err == nil {
		t.Fatal("terminal step must only be reachable via Advance")
	}
}

// Sessions hand out machine copies, so the terminal check must work on plain
// values, including ones returned straight from an accessor.
func TestAtTerminalOnValueCopy(t *testing.T) {
	t.Parallel()

	m, _ := New(3)
	if snapshot().AtTerminal() {
		t.Fatal("fresh machine must not be terminal")
	}
	_ = m.Advance(nil)
	_ = m.Advance(nil)
	if !m.AtTerminal() {
		t.Fatal("expected terminal after advancing to the last step")
	}

	copied := m
	_ = copied.Retreat()
	if !m.AtTerminal() {
		t.Fatal("retreating a copy must not move the original")
	}
}

func snapshot() Machine {
	m, _ := New(3)
	return m
}

func TestResetAndNormalize(t *testing.T) {
	t.Parallel()

	m, _ := New(5)
	_ = m.Advance(nil)
	_ = m.Advance(nil)
	m.Reset()
	if m.Current != 1 || m.HighWater != 1 {
		t.Fatalf("expected reset machine, got %+v", m)
	}

	damaged := Machine{Steps: 0, Current: -2, HighWater: 99}
	damaged.Normalize(5)
	if damaged.Steps != 5 || damaged.Current != 1 || damaged.HighWater != 1 {
		t.Fatalf("unexpected normalization result: %+v", damaged)
	}

	over := Machine{Steps: 3, Current: 7, HighWater: 0}
	over.Normalize(5)
	if over.Current != 3 || over.HighWater != 3 {
		t.Fatalf("unexpected clamp result: %+v", over)
	}
}
