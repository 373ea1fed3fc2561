package models

import (
	"time"

	"github.com/google/uuid"
)

// Parameter is a named product attribute shared across listings.
type Parameter struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ProductParameter attaches a parameter value to a listing.
type ProductParameter struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductInfoID uuid.UUID  `gorm:"column:product_info_id;type:uuid;not null;uniqueIndex:idx_product_parameters_info_param"`
	ParameterID   uuid.UUID  `gorm:"column:parameter_id;type:uuid;not null;uniqueIndex:idx_product_parameters_info_param"`
	Value         string     `gorm:"column:value;not null"`
	Parameter     *Parameter `gorm:"foreignKey:ParameterID"`
}
