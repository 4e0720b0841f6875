package carts

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jdazavala/puntoventa-backend/api/responses"
	"github.com/jdazavala/puntoventa-backend/api/validators"
	catalogsvc "github.com/jdazavala/puntoventa-backend/internal/catalog"
	cartsvc "github.com/jdazavala/puntoventa-backend/internal/carts"
	customersvc "github.com/jdazavala/puntoventa-backend/internal/customers"
	"github.com/jdazavala/puntoventa-backend/internal/payments"
	salesvc "github.com/jdazavala/puntoventa-backend/internal/sales"
	"github.com/jdazavala/puntoventa-backend/pkg/enums"
	pkgerrors "github.com/jdazavala/puntoventa-backend/pkg/errors"
	"github.com/jdazavala/puntoventa-backend/pkg/logger"
)

// RateSource supplies the selected exchange rate; 0 means unknown.
type RateSource interface {
	Active() float64
}

// Controller wires the register endpoints to the cart store and its
// collaborators.
type Controller struct {
	store     *cartsvc.Store
	rates     RateSource
	catalog   catalogsvc.Service
	customers customersvc.Service
	sales     salesvc.Service
	snapshots cartsvc.SnapshotStore
	register  string
	logg      *logger.Logger
}

func NewController(
	store *cartsvc.Store,
	rates RateSource,
	catalog catalogsvc.Service,
	customers customersvc.Service,
	sales salesvc.Service,
	snapshots cartsvc.SnapshotStore,
	register string,
	logg *logger.Logger,
) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("carts controller: store is required")
	}
	if rates == nil {
		return nil, fmt.Errorf("carts controller: rate source is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("carts controller: catalog service is required")
	}
	if customers == nil {
		return nil, fmt.Errorf("carts controller: customer service is required")
	}
	if sales == nil {
		return nil, fmt.Errorf("carts controller: sales service is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("carts controller: logger is required")
	}
	return &Controller{
		store:     store,
		rates:     rates,
		catalog:   catalog,
		customers: customers,
		sales:     sales,
		snapshots: snapshots,
		register:  register,
		logg:      logg,
	}, nil
}

// persistSnapshot saves the session set after a successful mutation. Snapshot
// writes are best effort; a failure is logged but never fails the request.
func (c *Controller) persistSnapshot(ctx context.Context) {
	if c.snapshots == nil {
		return
	}
	if err := c.store.Save(ctx, c.snapshots, c.register); err != nil {
		c.logg.Warn(ctx, fmt.Sprintf("cart snapshot save failed: %v", err))
	}
}

func (c *Controller) ListSessions(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, newRegisterView(c.store, c.rates.Active()))
}

func (c *Controller) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := c.store.CreateSession(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccessStatus(w, http.StatusCreated, SessionView{
		Session: session,
		Totals:  session.ComputeTotals(c.rates.Active()),
		Active:  true,
	})
}

func (c *Controller) ActivateSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if err := c.store.SwitchActive(r.Context(), id); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	confirm := validators.ParseQueryBool(r, "confirm")
	if err := c.store.CloseSession(r.Context(), id, confirm); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newRegisterView(c.store, c.rates.Active()))
}

func (c *Controller) GetActiveCart(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

// AddItem resolves the product through the catalog edge: price, stock and
// display fields come from the catalog row at add-time, never from the client.
func (c *Controller) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload AddItemRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	product, err := c.catalog.Get(r.Context(), payload.ProductID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	item := cartsvc.LineItem{
		ProductID:   product.ID,
		SKU:         product.SKU,
		Description: product.Description,
		Brand:       product.Brand,
		UnitPrice:   product.Price,
		Quantity:    payload.Quantity,
	}
	if err := c.store.AddItem(r.Context(), item, product.Stock); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) UpdateItem(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	var payload UpdateItemRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	// Re-check the stock cap against the current catalog row.
	stock := payload.Quantity
	session := c.store.Active()
	if index >= 0 && index < len(session.Items) {
		if product, err := c.catalog.Get(r.Context(), session.Items[index].ProductID); err == nil {
			stock = product.Stock
		}
	}

	if err := c.store.UpdateItemQuantity(r.Context(), index, payload.Quantity, stock); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) RemoveItem(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if err := c.store.RemoveItem(r.Context(), index); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var payload SetCustomerRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	customer, err := c.customers.Get(r.Context(), payload.CustomerID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	c.store.SetCustomer(r.Context(), &cartsvc.CustomerRef{
		ID:    customer.ID,
		Name:  customer.Name,
		TaxID: customer.TaxID,
		Phone: customer.Phone,
	})
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

// ClearCustomer reverts the active cart to quick sale.
func (c *Controller) ClearCustomer(w http.ResponseWriter, r *http.Request) {
	c.store.SetCustomer(r.Context(), nil)
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) SetTerms(w http.ResponseWriter, r *http.Request) {
	var payload SetTermsRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	timing, err := enums.ParsePaymentTiming(payload.Timing)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment timing"))
		return
	}
	if err := c.store.SetTerms(r.Context(), cartsvc.SaleTerms{
		Timing:       timing,
		DeferredDays: payload.DeferredDays,
	}); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) SetDocumentKind(w http.ResponseWriter, r *http.Request) {
	var payload SetDocumentKindRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if err := c.store.SetDocumentKind(r.Context(), enums.DocumentKind(payload.Kind)); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) SetSaleKind(w http.ResponseWriter, r *http.Request) {
	var payload SetSaleKindRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if err := c.store.SetSaleKind(r.Context(), enums.SaleKind(payload.Kind)); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) AddPayment(w http.ResponseWriter, r *http.Request) {
	var payload AddPaymentRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	method, err := enums.ParsePaymentMethod(payload.Method)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
		return
	}
	if _, err := c.store.AddPayment(r.Context(), method, c.rates.Active()); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	var payload UpdatePaymentRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if err := c.store.UpdatePayment(r.Context(), index, payload.Amount, payload.Reference); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) RemovePayment(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if err := c.store.RemovePayment(r.Context(), index); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) ApplyCombinedPayment(w http.ResponseWriter, r *http.Request) {
	var payload CombinedPaymentRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	baseMethod, err := enums.ParsePaymentMethod(payload.BaseMethod)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base method"))
		return
	}
	secondaryMethod, err := enums.ParsePaymentMethod(payload.SecondaryMethod)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid secondary method"))
		return
	}

	input := payments.CombinedInput{
		BaseMethod:      baseMethod,
		SecondaryMethod: secondaryMethod,
		BaseAmount:      payload.BaseAmount,
		BaseReference:   payload.BaseReference,
		SecondaryRef:    payload.SecondaryReference,
	}
	if err := c.store.ApplyCombinedPayment(r.Context(), input, c.rates.Active(), payload.Confirm); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) SetCombinedBase(w http.ResponseWriter, r *http.Request) {
	var payload CombinedBaseRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if err := c.store.SetCombinedBase(r.Context(), payload.BaseAmount, c.rates.Active()); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) SetPaymentMode(w http.ResponseWriter, r *http.Request) {
	var payload SetPaymentModeRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	mode, err := enums.ParseReconcileMode(payload.Mode)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reconcile mode"))
		return
	}
	if err := c.store.SetPaymentMode(r.Context(), mode, payload.Confirm); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) AdvanceWizard(w http.ResponseWriter, r *http.Request) {
	if err := c.store.AdvanceWizard(r.Context(), c.rates.Active()); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) RetreatWizard(w http.ResponseWriter, r *http.Request) {
	if err := c.store.RetreatWizard(r.Context()); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) JumpWizard(w http.ResponseWriter, r *http.Request) {
	var payload JumpRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if err := c.store.JumpWizard(r.Context(), payload.Step); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccess(w, newActiveView(c.store, c.rates.Active()))
}

func (c *Controller) Finalize(w http.ResponseWriter, r *http.Request) {
	result, err := c.sales.Finalize(r.Context(), c.rates.Active())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	c.persistSnapshot(r.Context())
	responses.WriteSuccessStatus(w, http.StatusCreated, result)
}

func sessionIDParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "sessionId")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "session id must be a positive integer")
	}
	return id, nil
}

func indexParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "index must be a non-negative integer")
	}
	return index, nil
}
