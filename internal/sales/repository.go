package sales

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jdazavala/puntoventa-backend/internal/repo"
	"github.com/jdazavala/puntoventa-backend/pkg/db/models"
	"github.com/jdazavala/puntoventa-backend/pkg/pagination"
)

// Repository persists finalized sale records.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.With(tx)}
}

// CountIssuedOn counts documents issued on the given day. Distinct document
// numbers, not rows: a multi-line sale is one document.
func (r *Repository) CountIssuedOn(ctx context.Context, day time.Time) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.SaleRecord{}).
		Where("issued_on = ?", day).
		Distinct("document_number").
		Count(&count).
		Error
	return count, err
}

// CreateBatch inserts every record of one finalized document.
func (r *Repository) CreateBatch(ctx context.Context, records []models.SaleRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&records).Error
}

// ListRecent pages sale records newest first.
func (r *Repository) ListRecent(ctx context.Context, params pagination.Params) ([]models.SaleRecord, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	pageSize := pagination.NormalizeLimit(params.Limit)
	qb := r.DB(ctx).
		Model(&models.SaleRecord{}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if cursor != nil {
		qb = qb.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var records []models.SaleRecord
	if err := qb.Find(&records).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(records) > pageSize {
		records = records[:pageSize]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return records, nextCursor, nil
}
