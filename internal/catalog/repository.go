package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdazavala/puntoventa-backend/internal/repo"
	"github.com/jdazavala/puntoventa-backend/pkg/db/models"
)

// SearchLimit caps live product search results.
const SearchLimit = 100

// Repository reads the product catalog. The engine never writes it; catalog
// maintenance happens outside the register.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads one active product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ? AND is_active = ?", id, true).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Search matches the query as a case-insensitive substring over description,
// SKU, reference and brand, capped at SearchLimit rows.
func (r *Repository) Search(ctx context.Context, query string) ([]models.Product, error) {
	qb := r.DB(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true)

	if search := strings.TrimSpace(query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where(
			"(LOWER(description) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(reference) LIKE ? OR LOWER(brand) LIKE ?)",
			pattern, pattern, pattern, pattern,
		)
	}

	var products []models.Product
	if err := qb.Order("description ASC").Limit(SearchLimit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
