package basket

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pyankovzhe/market-backend/pkg/db/models"
	"github.com/pyankovzhe/market-backend/pkg/enums"
)

// ItemInput is one requested basket line.
type ItemInput struct {
	ProductInfoID uuid.UUID
	Quantity      int
}

// OrderItemDTO is the wire shape of an order line.
type OrderItemDTO struct {
	ProductInfoID uuid.UUID       `json:"product_info_id"`
	Product       string          `json:"product,omitempty"`
	Shop          string          `json:"shop,omitempty"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// OrderDTO is the wire shape of a basket or placed order.
type OrderDTO struct {
	ID        *uuid.UUID       `json:"id,omitempty"`
	State     enums.OrderState `json:"state"`
	ContactID *uuid.UUID       `json:"contact_id,omitempty"`
	Items     []OrderItemDTO   `json:"items"`
	Total     decimal.Decimal  `json:"total"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
}

// RemoveResult itemizes a bulk line removal.
type RemoveResult struct {
	Removed []uuid.UUID `json:"removed"`
	Missing []uuid.UUID `json:"missing,omitempty"`
	Basket  *OrderDTO   `json:"basket"`
}

func emptyBasketDTO() *OrderDTO {
	return &OrderDTO{
		State: enums.OrderStateBasket,
		Items: []OrderItemDTO{},
		Total: decimal.Zero,
	}
}

func orderToDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}

	items := make([]OrderItemDTO, 0, len(order.Items))
	total := decimal.Zero
	for _, line := range order.Items {
		item := OrderItemDTO{
			ProductInfoID: line.ProductInfoID,
			Quantity:      line.Quantity,
		}
		if line.ProductInfo != nil {
			item.Price = line.ProductInfo.Price
			item.LineTotal = line.ProductInfo.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			if line.ProductInfo.Product != nil {
				item.Product = line.ProductInfo.Product.Name
			}
			if line.ProductInfo.Shop != nil {
				item.Shop = line.ProductInfo.Shop.Name
			}
		}
		total = total.Add(item.LineTotal)
		items = append(items, item)
	}

	id := order.ID
	createdAt := order.CreatedAt
	return &OrderDTO{
		ID:        &id,
		State:     order.State,
		ContactID: order.ContactID,
		Items:     items,
		Total:     total,
		CreatedAt: &createdAt,
	}
}
