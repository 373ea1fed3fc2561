package contacts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pyankovzhe/market-backend/pkg/db/models"
)

// Repository exposes persistence operations for delivery contacts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a contact repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a contact row.
func (r *Repository) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return nil, err
	}
	return contact, nil
}

// Update saves the provided contact row.
func (r *Repository) Update(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	if err := r.db.WithContext(ctx).Save(contact).Error; err != nil {
		return nil, err
	}
	return contact, nil
}

// FindByIDAndUser returns a contact restricted to its owner.
func (r *Repository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// ListByUser returns all contacts owned by the user.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	var rows []models.Contact
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteByIDsAndUser removes the given contacts when owned by the user and
// returns the ids actually deleted.
func (r *Repository) DeleteByIDsAndUser(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var existing []models.Contact
	err := r.db.WithContext(ctx).
		Select("id").
		Where("id IN ? AND user_id = ?", ids, userID).
		Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}

	deleted := make([]uuid.UUID, 0, len(existing))
	for _, row := range existing {
		deleted = append(deleted, row.ID)
	}

	err = r.db.WithContext(ctx).
		Where("id IN ? AND user_id = ?", deleted, userID).
		Delete(&models.Contact{}).Error
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
