package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pyankovzhe/market-backend/pkg/enums"
)

// Order is a user's order. At most one order per user may sit in the basket
// state; the partial unique index in the schema enforces that.
type Order struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	State     enums.OrderState `gorm:"column:state;type:text;not null;default:'basket'"`
	ContactID *uuid.UUID       `gorm:"column:contact_id;type:uuid"`
	Contact   *Contact         `gorm:"foreignKey:ContactID"`
	Items     []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is a single line in an order.
type OrderItem struct {
	ID            uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID    `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_order_items_order_info"`
	ProductInfoID uuid.UUID    `gorm:"column:product_info_id;type:uuid;not null;uniqueIndex:idx_order_items_order_info"`
	Quantity      int          `gorm:"column:quantity;not null"`
	ProductInfo   *ProductInfo `gorm:"foreignKey:ProductInfoID"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
