package models

import (
	"time"

	"github.com/google/uuid"
)

// ConfirmEmailToken is the one-shot activation token mailed at registration.
// At most one active token exists per user; it is deleted on confirmation.
type ConfirmEmailToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Key       string    `gorm:"column:key;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
