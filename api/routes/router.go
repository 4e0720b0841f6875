package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdazavala/puntoventa-backend/api/controllers"
	cartcontrollers "github.com/jdazavala/puntoventa-backend/api/controllers/carts"
	"github.com/jdazavala/puntoventa-backend/api/middleware"
	catalogsvc "github.com/jdazavala/puntoventa-backend/internal/catalog"
	customersvc "github.com/jdazavala/puntoventa-backend/internal/customers"
	ratesvc "github.com/jdazavala/puntoventa-backend/internal/rates"
	salesvc "github.com/jdazavala/puntoventa-backend/internal/sales"
	"github.com/jdazavala/puntoventa-backend/pkg/config"
	"github.com/jdazavala/puntoventa-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	cartController *cartcontrollers.Controller,
	catalogService catalogsvc.Service,
	customerService customersvc.Service,
	salesService salesvc.Service,
	ratesService *ratesvc.Service,
	readyDeps ...controllers.Pinger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, readyDeps...))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/carts", func(r chi.Router) {
			r.Get("/", cartController.ListSessions)
			r.Post("/", cartController.CreateSession)
			r.Post("/{sessionId}/activate", cartController.ActivateSession)
			r.Delete("/{sessionId}", cartController.CloseSession)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartController.GetActiveCart)

			r.Post("/items", cartController.AddItem)
			r.Patch("/items/{index}", cartController.UpdateItem)
			r.Delete("/items/{index}", cartController.RemoveItem)

			r.Put("/customer", cartController.SetCustomer)
			r.Delete("/customer", cartController.ClearCustomer)

			r.Put("/terms", cartController.SetTerms)
			r.Put("/document-kind", cartController.SetDocumentKind)
			r.Put("/sale-kind", cartController.SetSaleKind)

			r.Route("/payments", func(r chi.Router) {
				r.Post("/", cartController.AddPayment)
				r.Patch("/{index}", cartController.UpdatePayment)
				r.Delete("/{index}", cartController.RemovePayment)
				r.Put("/combined", cartController.ApplyCombinedPayment)
				r.Patch("/combined", cartController.SetCombinedBase)
				r.Put("/mode", cartController.SetPaymentMode)
			})

			r.Route("/wizard", func(r chi.Router) {
				r.Post("/advance", cartController.AdvanceWizard)
				r.Post("/retreat", cartController.RetreatWizard)
				r.Post("/jump", cartController.JumpWizard)
			})

			r.Post("/finalize", cartController.Finalize)
		})

		r.Get("/products", controllers.CatalogSearch(catalogService, logg))
		r.Get("/customers", controllers.CustomerSearch(customerService, logg))
		r.Get("/rates", controllers.CurrentRates(ratesService))
		r.Get("/sales", controllers.SalesList(salesService, logg))
	})

	return r
}
