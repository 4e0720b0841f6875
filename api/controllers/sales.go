package controllers

import (
	"net/http"

	"github.com/jdazavala/puntoventa-backend/api/responses"
	"github.com/jdazavala/puntoventa-backend/api/validators"
	salesvc "github.com/jdazavala/puntoventa-backend/internal/sales"
	"github.com/jdazavala/puntoventa-backend/pkg/logger"
	"github.com/jdazavala/puntoventa-backend/pkg/pagination"
)

// SalesList pages finalized sale records newest first.
func SalesList(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, next, err := svc.ListRecent(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: validators.QueryString(r, "cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WritePage(w, records, next)
	}
}
