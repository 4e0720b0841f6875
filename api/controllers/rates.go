package controllers

import (
	"net/http"

	"github.com/jdazavala/puntoventa-backend/api/responses"
	ratesvc "github.com/jdazavala/puntoventa-backend/internal/rates"
)

// CurrentRates exposes the last good exchange-rate snapshot plus the quote
// the engine is currently applying.
func CurrentRates(svc *ratesvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"snapshot": svc.Current(),
			"active":   svc.Active(),
		})
	}
}
