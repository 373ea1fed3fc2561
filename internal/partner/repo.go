package partner

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pyankovzhe/market-backend/pkg/db/models"
)

// Repository exposes the persistence operations behind a price-list sync.
// Callers run the whole sync inside one transaction and bind the repository
// to it with WithTx.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a partner repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) SyncRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindShopByOwner loads the owner's shop by name.
func (r *Repository) FindShopByOwner(ctx context.Context, name string, ownerID uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).
		Where("name = ? AND user_id = ?", name, ownerID).
		First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// CreateShop inserts a shop row.
func (r *Repository) CreateShop(ctx context.Context, shop *models.Shop) (*models.Shop, error) {
	if err := r.db.WithContext(ctx).Create(shop).Error; err != nil {
		return nil, err
	}
	return shop, nil
}

// UpdateShopURL records the source URL of the latest sync.
func (r *Repository) UpdateShopURL(ctx context.Context, shopID uuid.UUID, rawURL string) error {
	return r.db.WithContext(ctx).
		Model(&models.Shop{}).
		Where("id = ?", shopID).
		Update("url", rawURL).Error
}

// UpsertCategory finds or creates a category by its partner-facing id and
// refreshes its name.
func (r *Repository) UpsertCategory(ctx context.Context, externalID int, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where(models.Category{ExternalID: externalID}).
		Attrs(models.Category{Name: name}).
		FirstOrCreate(&category).Error
	if err != nil {
		return nil, err
	}
	if category.Name != name {
		category.Name = name
		if err := r.db.WithContext(ctx).Model(&category).Update("name", name).Error; err != nil {
			return nil, err
		}
	}
	return &category, nil
}

// AttachShopToCategory links the shop into the category's shop set.
func (r *Repository) AttachShopToCategory(ctx context.Context, categoryID, shopID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Category{ID: categoryID}).
		Association("Shops").
		Append(&models.Shop{ID: shopID})
}

// DeleteListingsByShop drops every listing the shop currently has. Parameter
// links go with them via cascade.
func (r *Repository) DeleteListingsByShop(ctx context.Context, shopID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Delete(&models.ProductInfo{}).Error
}

// UpsertProduct finds or creates a product by name within a category.
func (r *Repository) UpsertProduct(ctx context.Context, name string, categoryID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where(models.Product{Name: name, CategoryID: categoryID}).
		FirstOrCreate(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateListing inserts a listing row.
func (r *Repository) CreateListing(ctx context.Context, info *models.ProductInfo) (*models.ProductInfo, error) {
	if err := r.db.WithContext(ctx).Create(info).Error; err != nil {
		return nil, err
	}
	return info, nil
}

// UpsertParameter finds or creates a parameter by name.
func (r *Repository) UpsertParameter(ctx context.Context, name string) (*models.Parameter, error) {
	var parameter models.Parameter
	err := r.db.WithContext(ctx).
		Where(models.Parameter{Name: name}).
		FirstOrCreate(&parameter).Error
	if err != nil {
		return nil, err
	}
	return &parameter, nil
}

// CreateProductParameter attaches a parameter value to a listing.
func (r *Repository) CreateProductParameter(ctx context.Context, link *models.ProductParameter) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// CountListingsByShop returns how many listings the shop has.
func (r *Repository) CountListingsByShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductInfo{}).
		Where("shop_id = ?", shopID).
		Count(&count).Error
	return count, err
}
