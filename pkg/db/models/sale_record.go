package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jdazavala/puntoventa-backend/pkg/enums"
	"github.com/jdazavala/puntoventa-backend/pkg/types"
)

// SaleRecord is the immutable per-line-item artifact a finalized cart emits.
// Document-level fields (customer, terms, document number, rate snapshot) are
// duplicated across every row sharing a document number; the payment plan is
// attached only to the first row of the batch so a multi-line document never
// double-counts a payment.
type SaleRecord struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`

	DocumentNumber string             `gorm:"column:document_number;not null;index:idx_sale_records_doc,unique,composite:doc"`
	IssuedOn       time.Time          `gorm:"column:issued_on;type:date;not null;index:idx_sale_records_doc,unique,composite:doc"`
	LineSeq        int                `gorm:"column:line_seq;not null;index:idx_sale_records_doc,unique,composite:doc"`
	DocumentKind   enums.DocumentKind `gorm:"column:document_kind;not null"`
	SaleKind       enums.SaleKind     `gorm:"column:sale_kind;not null;default:'sale'"`

	CustomerID    *uuid.UUID `gorm:"column:customer_id;type:uuid;index"`
	CustomerName  *string    `gorm:"column:customer_name"`
	CustomerTaxID *string    `gorm:"column:customer_tax_id"`

	ProductID   *uuid.UUID `gorm:"column:product_id;type:uuid"`
	SKU         string     `gorm:"column:sku;not null"`
	Description string     `gorm:"column:description;not null"`
	Brand       string     `gorm:"column:brand;not null;default:''"`
	Quantity    int        `gorm:"column:qty;not null"`

	ExchangeRate float64 `gorm:"column:exchange_rate;type:numeric(18,6);not null;default:0"`
	UnitPriceUSD float64 `gorm:"column:unit_price_usd;type:numeric(14,2);not null"`
	UnitPriceVES float64 `gorm:"column:unit_price_ves;type:numeric(18,2);not null;default:0"`
	LineTotalUSD float64 `gorm:"column:line_total_usd;type:numeric(14,2);not null"`
	LineTotalVES float64 `gorm:"column:line_total_ves;type:numeric(18,2);not null;default:0"`
	TaxApplied   bool    `gorm:"column:tax_applied;not null;default:false"`
	TaxAmountUSD float64 `gorm:"column:tax_amount_usd;type:numeric(14,2);not null;default:0"`

	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null"`
	PaymentTiming enums.PaymentTiming `gorm:"column:payment_timing;not null;default:'immediate'"`
	DueDate       *time.Time          `gorm:"column:due_date"`
	PaidAmountUSD float64             `gorm:"column:paid_amount_usd;type:numeric(14,2);not null;default:0"`
	RemainingUSD  float64             `gorm:"column:remaining_usd;type:numeric(14,2);not null;default:0"`

	PaymentPlan       types.PaymentPlan `gorm:"column:payment_plan;type:jsonb;serializer:json"`
	PaymentReferences pq.StringArray    `gorm:"column:payment_references;type:text[]"`

	QuoteExpiresAt *time.Time `gorm:"column:quote_expires_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
