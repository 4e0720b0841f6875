package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartcontrollers "github.com/jdazavala/puntoventa-backend/api/controllers/carts"
	cartsvc "github.com/jdazavala/puntoventa-backend/internal/carts"
	"github.com/jdazavala/puntoventa-backend/internal/rates"
	"github.com/jdazavala/puntoventa-backend/internal/sales"
	"github.com/jdazavala/puntoventa-backend/pkg/config"
	"github.com/jdazavala/puntoventa-backend/pkg/db/models"
	"github.com/jdazavala/puntoventa-backend/pkg/logger"
	"github.com/jdazavala/puntoventa-backend/pkg/pagination"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubCatalogService struct {
	product *models.Product
	err     error
}

func (s stubCatalogService) Search(ctx context.Context, query string) ([]models.Product, error) {
	if s.product == nil {
		return nil, nil
	}
	return []models.Product{*s.product}, nil
}

func (s stubCatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

type stubCustomerService struct{}

func (stubCustomerService) Search(ctx context.Context, query string) ([]models.Customer, error) {
	return nil, nil
}

func (stubCustomerService) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return &models.Customer{ID: id, Name: "Cliente Prueba"}, nil
}

type stubSalesService struct{}

func (stubSalesService) Finalize(ctx context.Context, rate float64) (*sales.FinalizeResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubSalesService) ListRecent(ctx context.Context, params pagination.Params) ([]models.SaleRecord, string, error) {
	return nil, "", nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		Rates: config.RatesConfig{
			URL:             "http://127.0.0.1:0/rates",
			RefreshInterval: time.Minute,
			RequestTimeout:  time.Second,
			Selected:        rates.SelectedOfficial,
		},
		Carts: config.CartsConfig{
			RegisterName: "caja-1",
			MaxSessions:  5,
			WizardSteps:  5,
			SnapshotTTL:  time.Hour,
		},
	}
}

func newTestRouter(t *testing.T, catalog stubCatalogService) http.Handler {
	t.Helper()

	cfg := testConfig()
	logg := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})

	ratesService, err := rates.NewService(cfg.Rates, logg, nil)
	require.NoError(t, err)

	store, err := cartsvc.NewStore(cfg.Carts, logg)
	require.NoError(t, err)

	controller, err := cartcontrollers.NewController(
		store,
		ratesService,
		catalog,
		stubCustomerService{},
		stubSalesService{},
		nil,
		cfg.Carts.RegisterName,
		logg,
	)
	require.NoError(t, err)

	return NewRouter(
		cfg,
		logg,
		controller,
		catalog,
		stubCustomerService{},
		stubSalesService{},
		ratesService,
		stubPinger{},
	)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, stubCatalogService{})

	live := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, live)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", w.Header().Get("X-PuntoVenta-Env"))

	ready := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, ready)
	assert.Equal(t, http.StatusOK, w.Code)

	metricsReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, metricsReq)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyzReportsFailingDependency(t *testing.T) {
	cfg := testConfig()
	logg := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})

	ratesService, err := rates.NewService(cfg.Rates, logg, nil)
	require.NoError(t, err)

	store, err := cartsvc.NewStore(cfg.Carts, logg)
	require.NoError(t, err)

	controller, err := cartcontrollers.NewController(
		store, ratesService, stubCatalogService{}, stubCustomerService{}, stubSalesService{},
		nil, cfg.Carts.RegisterName, logg,
	)
	require.NoError(t, err)

	router := NewRouter(
		cfg, logg, controller,
		stubCatalogService{}, stubCustomerService{}, stubSalesService{}, ratesService,
		stubPinger{err: fmt.Errorf("connection refused")},
	)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCartLifecycleOverHTTP(t *testing.T) {
	productID := uuid.New()
	router := newTestRouter(t, stubCatalogService{product: &models.Product{
		ID:          productID,
		SKU:         "HAR-001",
		Description: "Harina de maiz 1kg",
		Brand:       "PAN",
		Price:       2.50,
		Stock:       10,
		IsActive:    true,
	}})

	// The register boots with one empty session.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// A second session opens alongside it.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/carts", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	body := fmt.Sprintf(`{"product_id":%q,"quantity":2}`, productID)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "HAR-001")

	// Closing the now non-empty session needs explicit confirmation.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/carts/2", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/carts/2?confirm=true", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAddItemRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(t, stubCatalogService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
