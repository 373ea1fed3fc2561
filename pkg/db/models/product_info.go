package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInfo is a shop's listing of a product. The whole set for a shop is
// replaced on every price-list sync.
type ProductInfo struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID          `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_infos_product_shop"`
	ShopID     uuid.UUID          `gorm:"column:shop_id;type:uuid;not null;uniqueIndex:idx_product_infos_product_shop;index"`
	ExternalID int                `gorm:"column:external_id;not null"`
	Model      string             `gorm:"column:model"`
	Quantity   int                `gorm:"column:quantity;not null"`
	Price      decimal.Decimal    `gorm:"column:price;type:numeric(12,2);not null"`
	PriceRRC   decimal.Decimal    `gorm:"column:price_rrc;type:numeric(12,2);not null"`
	Product    *Product           `gorm:"foreignKey:ProductID"`
	Shop       *Shop              `gorm:"foreignKey:ShopID"`
	Parameters []ProductParameter `gorm:"foreignKey:ProductInfoID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
