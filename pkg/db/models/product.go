package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry. Prices are stored in the base currency.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU         string    `gorm:"column:sku;not null;uniqueIndex"`
	Reference   string    `gorm:"column:reference;not null;default:''"`
	Description string    `gorm:"column:description;not null"`
	Brand       string    `gorm:"column:brand;not null;default:''"`
	Price       float64   `gorm:"column:price;type:numeric(14,2);not null"`
	Stock       int       `gorm:"column:stock;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
