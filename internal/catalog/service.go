package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pyankovzhe/market-backend/pkg/db/models"
	"github.com/pyankovzhe/market-backend/pkg/enums"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
)

type catalogRepository interface {
	ListOpenShops(ctx context.Context) ([]models.Shop, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	SearchListings(ctx context.Context, filter ListingFilter) ([]models.ProductInfo, error)
	FindListing(ctx context.Context, id uuid.UUID) (*models.ProductInfo, error)
	FindListings(ctx context.Context, ids []uuid.UUID) ([]models.ProductInfo, error)
}

// Service exposes the read-only catalog surface.
type Service interface {
	ListShops(ctx context.Context) ([]ShopDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	SearchListings(ctx context.Context, filter ListingFilter) ([]ListingDTO, error)
	GetListing(ctx context.Context, id uuid.UUID) (*ListingDTO, error)
}

type service struct {
	repo catalogRepository
}

// NewService wires the catalog query service.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// ListShops returns shops currently accepting orders.
func (s *service) ListShops(ctx context.Context) ([]ShopDTO, error) {
	rows, err := s.repo.ListOpenShops(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shops")
	}
	result := make([]ShopDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *shopToDTO(&rows[i]))
	}
	return result, nil
}

// ListCategories returns all categories.
func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	result := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *categoryToDTO(&rows[i]))
	}
	return result, nil
}

// GetListing returns one listing's detail. Listings of closed shops are
// hidden from the public surface, same as search.
func (s *service) GetListing(ctx context.Context, id uuid.UUID) (*ListingDTO, error) {
	row, err := s.repo.FindListing(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if row.Shop != nil && row.Shop.State == enums.ShopStateClosed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return listingToDTO(row), nil
}

// SearchListings returns listings from open shops matching the filter.
func (s *service) SearchListings(ctx context.Context, filter ListingFilter) ([]ListingDTO, error) {
	rows, err := s.repo.SearchListings(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search listings")
	}
	result := make([]ListingDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *listingToDTO(&rows[i]))
	}
	return result, nil
}
