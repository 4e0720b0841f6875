package customers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdazavala/puntoventa-backend/internal/repo"
	"github.com/jdazavala/puntoventa-backend/pkg/db/models"
)

// SearchLimit caps quick-list customer lookups at the register.
const SearchLimit = 10

// Repository reads the customer directory.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// Search matches the query as a case-insensitive substring over name, tax id
// and phone, capped at SearchLimit rows.
func (r *Repository) Search(ctx context.Context, query string) ([]models.Customer, error) {
	qb := r.DB(ctx).Model(&models.Customer{})

	if search := strings.TrimSpace(query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where(
			"(LOWER(name) LIKE ? OR LOWER(tax_id) LIKE ? OR LOWER(phone) LIKE ?)",
			pattern, pattern, pattern,
		)
	}

	var customers []models.Customer
	if err := qb.Order("name ASC").Limit(SearchLimit).Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
