package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog-wide entry a shop listing points at.
type Product struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string    `gorm:"column:name;not null;uniqueIndex:idx_products_name_category"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;not null;uniqueIndex:idx_products_name_category"`
	Category   *Category `gorm:"foreignKey:CategoryID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
