package controllers

import (
	"net/http"

	"github.com/jdazavala/puntoventa-backend/api/responses"
	"github.com/jdazavala/puntoventa-backend/api/validators"
	catalogsvc "github.com/jdazavala/puntoventa-backend/internal/catalog"
	"github.com/jdazavala/puntoventa-backend/pkg/logger"
)

// CatalogSearch is the live product lookup behind the register's search box.
func CatalogSearch(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.Search(r.Context(), validators.QueryString(r, "q"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}
