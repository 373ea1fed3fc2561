package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pyankovzhe/market-backend/pkg/db/models"
	"github.com/pyankovzhe/market-backend/pkg/enums"
)

// Repository exposes read operations over the public catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListOpenShops returns all shops currently accepting orders.
func (r *Repository) ListOpenShops(ctx context.Context) ([]models.Shop, error) {
	var rows []models.Shop
	err := r.db.WithContext(ctx).
		Where("state = ?", enums.ShopStateOpen).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCategories returns every category.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListingFilter narrows a catalog search.
type ListingFilter struct {
	ShopID             *uuid.UUID
	CategoryExternalID *int
}

// SearchListings returns listings from open shops matching the filter, with
// product, category, shop, and parameter rows preloaded.
func (r *Repository) SearchListings(ctx context.Context, filter ListingFilter) ([]models.ProductInfo, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProductInfo{}).
		Joins("JOIN shops ON shops.id = product_infos.shop_id").
		Joins("JOIN products ON products.id = product_infos.product_id").
		Where("shops.state = ?", enums.ShopStateOpen).
		Preload("Product").
		Preload("Product.Category").
		Preload("Shop").
		Preload("Parameters").
		Preload("Parameters.Parameter")

	if filter.ShopID != nil {
		query = query.Where("product_infos.shop_id = ?", *filter.ShopID)
	}
	if filter.CategoryExternalID != nil {
		query = query.
			Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.external_id = ?", *filter.CategoryExternalID)
	}

	var rows []models.ProductInfo
	if err := query.Order("products.name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindListing loads one listing with everything the detail view shows.
func (r *Repository) FindListing(ctx context.Context, id uuid.UUID) (*models.ProductInfo, error) {
	var row models.ProductInfo
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Category").
		Preload("Shop").
		Preload("Parameters").
		Preload("Parameters.Parameter").
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindListings loads the given listings regardless of shop state, with shop
// rows preloaded so callers can check availability.
func (r *Repository) FindListings(ctx context.Context, ids []uuid.UUID) ([]models.ProductInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.ProductInfo
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Preload("Shop").
		Preload("Product").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
