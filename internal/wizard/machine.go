package wizard

import (
	"fmt"

	pkgerrors "github.com/jdazavala/puntoventa-backend/pkg/errors"
)

// Machine drives a cart through its ordered checkout steps. Steps are numbered
// 1..Steps; HighWater is the furthest step the session has legitimately reached,
// which bounds direct navigation so a cashier can review backwards but never
// skip ahead.
//
// The machine is a plain value so it serializes with the session snapshot;
// per-step exit guards are supplied by the caller on each Advance.
type Machine struct {
	Steps     int `json:"steps"`
	Current   int `json:"current"`
	HighWater int `json:"high_water"`
}

// Guard validates that the current step may be exited. A non-nil return blocks
// the transition and leaves the machine untouched.
type Guard func(current int) error

// New builds a machine positioned on step 1.
func New(steps int) (Machine, error) {
	if steps < 2 {
		return Machine{}, fmt.Errorf("wizard needs at least 2 steps, got %d", steps)
	}
	return Machine{Steps: steps, Current: 1, HighWater: 1}, nil
}

// Advance moves one step forward after the exit guard passes.
func (m *Machine) Advance(guard Guard) error {
	if m.Current >= m.Steps {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "already on the final step")
	}
	if guard != nil {
		if err := guard(m.Current); err != nil {
			return err
		}
	}
	m.Current++
	if m.Current > m.HighWater {
		m.HighWater = m.Current
	}
	return nil
}

// Retreat moves one step back; it is always permitted above step 1.
func (m *Machine) Retreat() error {
	if m.Current <= 1 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "already on the first step")
	}
	m.Current--
	return nil
}

// JumpTo navigates directly to a previously visited step. The terminal step is
// excluded: it is only reachable through Advance once the payment guard passes.
func (m *Machine) JumpTo(step int) error {
	if step < 1 || step > m.Steps {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("step %d is out of range", step))
	}
	if step == m.Steps && m.Current != m.Steps {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "the confirmation step cannot be jumped to")
	}
	if step > m.HighWater {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("step %d has not been reached yet", step))
	}
	m.Current = step
	return nil
}

// AtTerminal reports whether the machine sits on its final step. Read-only, so
// it works on session copies handed out by accessors.
func (m Machine) AtTerminal() bool {
	return m.Current == m.Steps
}

// Reset returns the machine to step 1 and clears navigation history.
func (m *Machine) Reset() {
	m.Current = 1
	m.HighWater = 1
}

// Normalize clamps persisted values back into a coherent range; it is used when
// restoring a session blob whose fields may be missing or damaged.
func (m *Machine) Normalize(defaultSteps int) {
	if m.Steps < 2 {
		m.Steps = defaultSteps
	}
	if m.Current < 1 {
		m.Current = 1
	}
	if m.Current > m.Steps {
		m.Current = m.Steps
	}
	// An out-of-range high water mark cannot be trusted; collapse it so a
	// damaged blob cannot unlock forward navigation.
	if m.HighWater < m.Current || m.HighWater > m.Steps {
		m.HighWater = m.Current
	}
}
