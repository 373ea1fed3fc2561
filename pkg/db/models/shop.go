package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pyankovzhe/market-backend/pkg/enums"
)

// Shop is a partner storefront. A closed shop rejects price-list syncs.
type Shop struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string          `gorm:"column:name;not null;uniqueIndex:idx_shops_name_owner"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_shops_name_owner"`
	URL       *string         `gorm:"column:url"`
	State     enums.ShopState `gorm:"column:state;type:text;not null;default:'open'"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
