package carts

import (
	cartsvc "github.com/jdazavala/puntoventa-backend/internal/carts"
)

// SessionView is the cart payload the register UI renders: the raw session
// plus its derived totals at the current rate.
type SessionView struct {
	Session cartsvc.CartSession `json:"session"`
	Totals  cartsvc.Totals      `json:"totals"`
	Active  bool                `json:"active"`
}

// RegisterView lists every live session and marks the active one.
type RegisterView struct {
	Sessions []SessionView `json:"sessions"`
	ActiveID int           `json:"active_id"`
}

func newRegisterView(store *cartsvc.Store, rate float64) RegisterView {
	activeID := store.ActiveID()
	sessions := store.Sessions()

	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, SessionView{
			Session: session,
			Totals:  session.ComputeTotals(rate),
			Active:  session.ID == activeID,
		})
	}
	return RegisterView{Sessions: views, ActiveID: activeID}
}

func newActiveView(store *cartsvc.Store, rate float64) SessionView {
	session := store.Active()
	return SessionView{
		Session: session,
		Totals:  session.ComputeTotals(rate),
		Active:  true,
	}
}
