package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pyankovzhe/market-backend/pkg/db/models"
)

// Store is the persistence surface for user accounts and their email
// confirmation tokens. Callers that need several writes to land together
// bind the store to a transaction with WithTx.
type Store interface {
	WithTx(tx *gorm.DB) Store
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	MarkActive(ctx context.Context, id uuid.UUID) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	CreateConfirmToken(ctx context.Context, token *models.ConfirmEmailToken) (*models.ConfirmEmailToken, error)
	FindConfirmToken(ctx context.Context, email, key string) (*models.ConfirmEmailToken, error)
	DeleteConfirmTokens(ctx context.Context, userID uuid.UUID) error
}

// Repository exposes persistence operations for user accounts and their
// email confirmation tokens.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a user repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) Store {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user row.
func (r *Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail loads a user by email address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves the provided user row.
func (r *Repository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// MarkActive flips the account to active.
func (r *Repository) MarkActive(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", true).Error
}

// TouchLastLogin records the most recent successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

// CreateConfirmToken inserts a confirmation token for the user.
func (r *Repository) CreateConfirmToken(ctx context.Context, token *models.ConfirmEmailToken) (*models.ConfirmEmailToken, error) {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

// FindConfirmToken loads the pending confirmation token for an email.
func (r *Repository) FindConfirmToken(ctx context.Context, email, key string) (*models.ConfirmEmailToken, error) {
	var token models.ConfirmEmailToken
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = confirm_email_tokens.user_id").
		Where("users.email = ? AND confirm_email_tokens.key = ?", email, key).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// DeleteConfirmTokens removes all confirmation tokens for the user.
func (r *Repository) DeleteConfirmTokens(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.ConfirmEmailToken{}).Error
}
