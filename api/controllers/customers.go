package controllers

import (
	"net/http"

	"github.com/jdazavala/puntoventa-backend/api/responses"
	"github.com/jdazavala/puntoventa-backend/api/validators"
	customersvc "github.com/jdazavala/puntoventa-backend/internal/customers"
	"github.com/jdazavala/puntoventa-backend/pkg/logger"
)

// CustomerSearch backs the quick customer picker during checkout.
func CustomerSearch(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customers, err := svc.Search(r.Context(), validators.QueryString(r, "q"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customers)
	}
}
