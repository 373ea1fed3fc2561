package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pyankovzhe/market-backend/pkg/enums"
)

// User represents the canonical identity entity. Accounts stay inactive
// until the email confirmation token is redeemed.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FirstName    string         `gorm:"column:first_name;not null"`
	LastName     string         `gorm:"column:last_name;not null"`
	Company      *string        `gorm:"column:company"`
	Position     *string        `gorm:"column:position"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'buyer'"`
	IsActive     bool           `gorm:"column:is_active;not null;default:false"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
