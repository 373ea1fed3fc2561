package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ensureID assigns a client-side UUID when the row does not already carry
// one. Postgres also has a column default, but the sqlite driver used in
// tests does not.
func ensureID(id *uuid.UUID) error {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	return nil
}

func (m *User) BeforeCreate(*gorm.DB) error              { return ensureID(&m.ID) }
func (m *ConfirmEmailToken) BeforeCreate(*gorm.DB) error { return ensureID(&m.ID) }
func (m *Contact) BeforeCreate(*gorm.DB) error           { return ensureID(&m.ID) }
func (m *Shop) BeforeCreate(*gorm.DB) error              { return ensureID(&m.ID) }
func (m *Category) BeforeCreate(*gorm.DB) error          { return ensureID(&m.ID) }
func (m *Product) BeforeCreate(*gorm.DB) error           { return ensureID(&m.ID) }
func (m *ProductInfo) BeforeCreate(*gorm.DB) error       { return ensureID(&m.ID) }
func (m *Parameter) BeforeCreate(*gorm.DB) error         { return ensureID(&m.ID) }
func (m *ProductParameter) BeforeCreate(*gorm.DB) error  { return ensureID(&m.ID) }
func (m *Order) BeforeCreate(*gorm.DB) error             { return ensureID(&m.ID) }
func (m *OrderItem) BeforeCreate(*gorm.DB) error         { return ensureID(&m.ID) }
