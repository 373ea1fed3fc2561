package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pyankovzhe/market-backend/pkg/db/models"
	"github.com/pyankovzhe/market-backend/pkg/enums"
)

// ShopDTO is the public shape of a partner storefront.
type ShopDTO struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	State enums.ShopState `json:"state"`
}

// CategoryDTO is the public shape of a catalog category.
type CategoryDTO struct {
	ID         uuid.UUID `json:"id"`
	ExternalID int       `json:"external_id"`
	Name       string    `json:"name"`
}

// ListingDTO is a shop's offer of a product, flattened for the catalog
// search response.
type ListingDTO struct {
	ID         uuid.UUID         `json:"id"`
	Product    string            `json:"product"`
	Model      string            `json:"model,omitempty"`
	Category   *CategoryDTO      `json:"category,omitempty"`
	Shop       *ShopDTO          `json:"shop,omitempty"`
	Quantity   int               `json:"quantity"`
	Price      decimal.Decimal   `json:"price"`
	PriceRRC   decimal.Decimal   `json:"price_rrc"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

func shopToDTO(shop *models.Shop) *ShopDTO {
	if shop == nil {
		return nil
	}
	return &ShopDTO{
		ID:    shop.ID,
		Name:  shop.Name,
		State: shop.State,
	}
}

func categoryToDTO(category *models.Category) *CategoryDTO {
	if category == nil {
		return nil
	}
	return &CategoryDTO{
		ID:         category.ID,
		ExternalID: category.ExternalID,
		Name:       category.Name,
	}
}

func listingToDTO(info *models.ProductInfo) *ListingDTO {
	if info == nil {
		return nil
	}

	dto := &ListingDTO{
		ID:       info.ID,
		Model:    info.Model,
		Quantity: info.Quantity,
		Price:    info.Price,
		PriceRRC: info.PriceRRC,
		Shop:     shopToDTO(info.Shop),
	}
	if info.Product != nil {
		dto.Product = info.Product.Name
		dto.Category = categoryToDTO(info.Product.Category)
	}
	if len(info.Parameters) > 0 {
		dto.Parameters = make(map[string]string, len(info.Parameters))
		for _, pp := range info.Parameters {
			if pp.Parameter != nil {
				dto.Parameters[pp.Parameter.Name] = pp.Value
			}
		}
	}
	return dto
}
