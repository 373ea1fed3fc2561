package basket

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pyankovzhe/market-backend/pkg/db/models"
	"github.com/pyankovzhe/market-backend/pkg/enums"
)

// Repository exposes persistence operations for baskets and placed orders.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func preloadOrder(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items").
		Preload("Items.ProductInfo").
		Preload("Items.ProductInfo.Product").
		Preload("Items.ProductInfo.Shop").
		Preload("Contact")
}

// FindBasket loads the user's open basket with its lines.
func (r *Repository) FindBasket(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := preloadOrder(r.db.WithContext(ctx)).
		Where("user_id = ? AND state = ?", userID, enums.OrderStateBasket).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateBasket inserts an empty basket row. The partial unique index on
// (user_id) WHERE state='basket' rejects a second open basket.
func (r *Repository) CreateBasket(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	order := &models.Order{
		UserID: userID,
		State:  enums.OrderStateBasket,
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// UpsertItem writes a basket line, overwriting the quantity when the line
// already exists. Retried requests land on the same row.
func (r *Repository) UpsertItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "product_info_id"}},
			DoUpdates: clause.Assignments(map[string]any{"quantity": item.Quantity}),
		}).
		Create(item).Error
}

// UpdateItemQuantity sets the quantity on an existing line and reports
// whether the line was found.
func (r *Repository) UpdateItemQuantity(ctx context.Context, orderID, productInfoID uuid.UUID, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND product_info_id = ?", orderID, productInfoID).
		Update("quantity", quantity)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteItems removes the given lines and returns which listing ids were
// actually present.
func (r *Repository) DeleteItems(ctx context.Context, orderID uuid.UUID, productInfoIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(productInfoIDs) == 0 {
		return nil, nil
	}

	var existing []models.OrderItem
	err := r.db.WithContext(ctx).
		Select("product_info_id").
		Where("order_id = ? AND product_info_id IN ?", orderID, productInfoIDs).
		Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}

	found := make([]uuid.UUID, 0, len(existing))
	for _, row := range existing {
		found = append(found, row.ProductInfoID)
	}

	err = r.db.WithContext(ctx).
		Where("order_id = ? AND product_info_id IN ?", orderID, found).
		Delete(&models.OrderItem{}).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// CountItems returns how many lines the order has.
func (r *Repository) CountItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}

// PlaceOrder moves the basket to the new state, guarded on it still being a
// basket so concurrent placements cannot double-fire.
func (r *Repository) PlaceOrder(ctx context.Context, orderID, userID, contactID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND user_id = ? AND state = ?", orderID, userID, enums.OrderStateBasket).
		Updates(map[string]any{
			"state":      enums.OrderStateNew,
			"contact_id": contactID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindOrderByIDAndUser loads any order owned by the user.
func (r *Repository) FindOrderByIDAndUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := preloadOrder(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListPlacedForShopOwner returns placed orders containing at least one
// listing from a shop owned by the given user, newest first. This is the
// partner's fulfillment queue.
func (r *Repository) ListPlacedForShopOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := preloadOrder(r.db.WithContext(ctx)).
		Distinct("orders.*").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN product_infos ON product_infos.id = order_items.product_info_id").
		Joins("JOIN shops ON shops.id = product_infos.shop_id").
		Where("shops.user_id = ? AND orders.state <> ?", ownerID, enums.OrderStateBasket).
		Order("orders.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPlacedByUser returns the user's orders that left the basket state,
// newest first.
func (r *Repository) ListPlacedByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := preloadOrder(r.db.WithContext(ctx)).
		Where("user_id = ? AND state <> ?", userID, enums.OrderStateBasket).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
