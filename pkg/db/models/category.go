package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products. ExternalID is the identifier partners use in
// their price-list documents.
type Category struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ExternalID int       `gorm:"column:external_id;not null;uniqueIndex"`
	Name       string    `gorm:"column:name;not null"`
	Shops      []Shop    `gorm:"many2many:category_shops"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
