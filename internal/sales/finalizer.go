package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jdazavala/puntoventa-backend/internal/carts"
	"github.com/jdazavala/puntoventa-backend/pkg/config"
	"github.com/jdazavala/puntoventa-backend/pkg/db"
	"github.com/jdazavala/puntoventa-backend/pkg/db/models"
	"github.com/jdazavala/puntoventa-backend/pkg/enums"
	pkgerrors "github.com/jdazavala/puntoventa-backend/pkg/errors"
	"github.com/jdazavala/puntoventa-backend/pkg/logger"
	"github.com/jdazavala/puntoventa-backend/pkg/metrics"
	"github.com/jdazavala/puntoventa-backend/pkg/money"
	"github.com/jdazavala/puntoventa-backend/pkg/pagination"
	"github.com/jdazavala/puntoventa-backend/pkg/types"
)

// CartSource is the slice of the cart store the finalizer consumes.
type CartSource interface {
	Active() carts.CartSession
	FinalizeReset(ctx context.Context)
}

// RecordStore persists one finalized document and answers the same-day count
// that drives document numbering.
type RecordStore interface {
	CountIssuedOn(ctx context.Context, day time.Time) (int64, error)
	SaveDocument(ctx context.Context, records []models.SaleRecord) error
}

// TxStore is the production RecordStore: the document batch is written inside
// a single transaction so a multi-line document is all-or-nothing.
type TxStore struct {
	client *db.Client
	repo   *Repository
}

func NewTxStore(client *db.Client, repo *Repository) (*TxStore, error) {
	if client == nil {
		return nil, fmt.Errorf("sales: db client is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("sales: repository is required")
	}
	return &TxStore{client: client, repo: repo}, nil
}

func (s *TxStore) CountIssuedOn(ctx context.Context, day time.Time) (int64, error) {
	return s.repo.CountIssuedOn(ctx, day)
}

func (s *TxStore) SaveDocument(ctx context.Context, records []models.SaleRecord) error {
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateBatch(ctx, records)
	})
	if db.IsUniqueViolation(err, "") {
		// Two registers raced on the same document number; the caller retries
		// with a fresh count.
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "document number already taken")
	}
	return err
}

// FinalizeResult reports what the finalize emitted.
type FinalizeResult struct {
	DocumentNumber string              `json:"document_number"`
	IssuedOn       time.Time           `json:"issued_on"`
	Records        []models.SaleRecord `json:"records"`
	Totals         carts.Totals        `json:"totals"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
}

// Service turns a settled (or credit-eligible) cart into its immutable sale
// records and resets the cart slot on success.
type Service interface {
	Finalize(ctx context.Context, rate float64) (*FinalizeResult, error)
	ListRecent(ctx context.Context, params pagination.Params) ([]models.SaleRecord, string, error)
}

type service struct {
	store   RecordStore
	carts   CartSource
	repo    *Repository
	cfg     config.SalesConfig
	logg    *logger.Logger
	metrics *metrics.EngineMetrics
	now     func() time.Time
}

func NewService(
	store RecordStore,
	cartSource CartSource,
	repo *Repository,
	cfg config.SalesConfig,
	logg *logger.Logger,
	engineMetrics *metrics.EngineMetrics,
) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("sales: record store is required")
	}
	if cartSource == nil {
		return nil, fmt.Errorf("sales: cart source is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("sales: logger is required")
	}
	if cfg.DocumentPadWidth <= 0 {
		cfg.DocumentPadWidth = 4
	}
	return &service{
		store:   store,
		carts:   cartSource,
		repo:    repo,
		cfg:     cfg,
		logg:    logg,
		metrics: engineMetrics,
		now:     time.Now,
	}, nil
}

// Finalize validates the active cart, emits one sale record per line item and
// persists the batch. The cart is only reset after the write succeeds; any
// persistence error leaves it untouched so the cashier can retry.
func (s *service) Finalize(ctx context.Context, rate float64) (*FinalizeResult, error) {
	started := s.now()
	session := s.carts.Active()
	kind := session.SaleKind.String()

	result, err := s.finalize(ctx, session, rate)
	if err != nil {
		s.metrics.IncFinalizeFailure(kind)
		return nil, err
	}

	s.carts.FinalizeReset(ctx)
	s.metrics.IncFinalizeSuccess(kind)
	s.metrics.ObserveFinalizeDuration(kind, s.now().Sub(started))

	s.logg.Info(
		s.logg.WithDocumentNumber(s.logg.WithSessionID(ctx, session.ID), result.DocumentNumber),
		"sale finalized",
	)
	return result, nil
}

func (s *service) finalize(ctx context.Context, session carts.CartSession, rate float64) (*FinalizeResult, error) {
	if len(session.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot finalize an empty cart")
	}

	isQuote := session.SaleKind == enums.SaleKindQuote
	isCredit := session.Terms.IsCredit()
	if isCredit && session.Customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit sales require a customer")
	}

	totals := session.ComputeTotals(rate)
	if !isQuote && !isCredit {
		if !totals.Settled {
			return nil, pkgerrors.New(pkgerrors.CodePaymentIncomplete, "payments do not cover the total")
		}
		if err := session.Payments.ValidateReferences(); err != nil {
			return nil, err
		}
	}

	now := s.now()
	issuedOn := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	count, err := s.store.CountIssuedOn(ctx, issuedOn)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting today's documents")
	}
	docNumber := s.documentNumber(count+1, isQuote)

	status := s.paymentStatus(totals, isCredit)
	records := s.buildRecords(session, totals, docNumber, issuedOn, now, status)

	if err := s.store.SaveDocument(ctx, records); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting sale records")
	}

	return &FinalizeResult{
		DocumentNumber: docNumber,
		IssuedOn:       issuedOn,
		Records:        records,
		Totals:         totals,
		PaymentStatus:  status,
	}, nil
}

func (s *service) documentNumber(seq int64, isQuote bool) string {
	number := fmt.Sprintf("%0*d", s.cfg.DocumentPadWidth, seq)
	if isQuote {
		return s.cfg.QuotePrefix + number
	}
	return number
}

func (s *service) paymentStatus(totals carts.Totals, isCredit bool) enums.PaymentStatus {
	switch {
	case isCredit:
		return enums.PaymentStatusCredit
	case totals.Settled:
		return enums.PaymentStatusPaid
	default:
		return enums.PaymentStatusPending
	}
}

func (s *service) buildRecords(
	session carts.CartSession,
	totals carts.Totals,
	docNumber string,
	issuedOn, now time.Time,
	status enums.PaymentStatus,
) []models.SaleRecord {
	var dueDate *time.Time
	if session.Terms.IsCredit() {
		due := now.AddDate(0, 0, session.Terms.DeferredDays)
		dueDate = &due
	}

	var quoteExpiresAt *time.Time
	if session.SaleKind == enums.SaleKindQuote {
		endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
		quoteExpiresAt = &endOfDay
	}

	var customerID *uuid.UUID
	var customerName, customerTaxID *string
	if session.Customer != nil {
		id := session.Customer.ID
		name := session.Customer.Name
		taxID := session.Customer.TaxID
		customerID = &id
		customerName = &name
		customerTaxID = &taxID
	}

	// One payment covers the whole document; paid against each line is the
	// same fraction of that line's gross.
	paidFraction := 0.0
	if totals.Total > 0 {
		paidFraction = totals.AmountPaid / totals.Total
		if paidFraction > 1 {
			paidFraction = 1
		}
	}

	plan := make(types.PaymentPlan, 0, len(session.Payments.Entries))
	for _, entry := range session.Payments.Entries {
		plan = append(plan, types.PaymentPlanEntry{
			Method:    entry.Method,
			Currency:  entry.Currency,
			Amount:    round2(entry.Amount),
			Reference: entry.Reference,
		})
	}

	records := make([]models.SaleRecord, 0, len(session.Items))
	for i, item := range session.Items {
		lineNet := round2(item.UnitPrice * float64(item.Quantity))
		taxShare := 0.0
		if session.TaxApplies() {
			taxShare = round2(lineNet * money.TaxRate)
		}
		lineGross := round2(lineNet + taxShare)

		record := models.SaleRecord{
			DocumentNumber: docNumber,
			IssuedOn:       issuedOn,
			LineSeq:        i + 1,
			DocumentKind:   session.DocumentKind,
			SaleKind:       session.SaleKind,
			CustomerID:     customerID,
			CustomerName:   customerName,
			CustomerTaxID:  customerTaxID,
			ProductID:      productID(item),
			SKU:            item.SKU,
			Description:    item.Description,
			Brand:          item.Brand,
			Quantity:       item.Quantity,
			ExchangeRate:   totals.ExchangeRate,
			UnitPriceUSD:   round2(item.UnitPrice),
			UnitPriceVES:   round2(money.Convert(item.UnitPrice, totals.ExchangeRate)),
			LineTotalUSD:   lineNet,
			LineTotalVES:   round2(money.Convert(lineNet, totals.ExchangeRate)),
			TaxApplied:     session.TaxApplies(),
			TaxAmountUSD:   taxShare,
			PaymentStatus:  status,
			PaymentTiming:  session.Terms.Timing,
			DueDate:        dueDate,
			RemainingUSD:   round2(lineGross * (1 - paidFraction)),
			QuoteExpiresAt: quoteExpiresAt,
		}

		if i == 0 {
			record.PaidAmountUSD = round2(totals.AmountPaid)
			record.PaymentPlan = plan
			record.PaymentReferences = pq.StringArray(plan.References())
		}

		records = append(records, record)
	}
	return records
}

func (s *service) ListRecent(ctx context.Context, params pagination.Params) ([]models.SaleRecord, string, error) {
	if s.repo == nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeInternal, "sale listing is not configured")
	}
	records, next, err := s.repo.ListRecent(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing sale records")
	}
	return records, next, nil
}

func productID(item carts.LineItem) *uuid.UUID {
	if item.ProductID == uuid.Nil {
		return nil
	}
	id := item.ProductID
	return &id
}

// round2 rounds a persisted amount to cents; derived floats carry more
// precision than the numeric(_,2) columns.
func round2(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return rounded
}
