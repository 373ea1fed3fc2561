package basket

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgdb "github.com/pyankovzhe/market-backend/pkg/db"
	"github.com/pyankovzhe/market-backend/pkg/db/models"
	"github.com/pyankovzhe/market-backend/pkg/enums"
)

func setupBasketTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	contacts := `
CREATE TABLE IF NOT EXISTS contacts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  city TEXT NOT NULL,
  street TEXT NOT NULL,
  house TEXT,
  structure TEXT,
  building TEXT,
  apartment TEXT,
  phone TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	shops := `
CREATE TABLE IF NOT EXISTS shops (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  user_id TEXT NOT NULL,
  url TEXT,
  state TEXT NOT NULL DEFAULT 'open',
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	productInfos := `
CREATE TABLE IF NOT EXISTS product_infos (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  shop_id TEXT NOT NULL,
  external_id INTEGER NOT NULL,
  model TEXT,
  quantity INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  price_rrc NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  state TEXT NOT NULL DEFAULT 'basket',
  contact_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	basketIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_user_basket
  ON orders (user_id) WHERE state = 'basket';`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_info_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (order_id, product_info_id)
);`
	for _, ddl := range []string{contacts, shops, products, productInfos, orders, basketIndex, orderItems} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func newListing(t *testing.T, db *gorm.DB, shopName string) *models.ProductInfo {
	t.Helper()

	shop := &models.Shop{
		ID:     uuid.New(),
		Name:   shopName,
		UserID: uuid.New(),
		State:  enums.ShopStateOpen,
	}
	require.NoError(t, db.Create(shop).Error)

	product := &models.Product{
		ID:         uuid.New(),
		Name:       shopName + " phone",
		CategoryID: uuid.New(),
	}
	require.NoError(t, db.Create(product).Error)

	info := &models.ProductInfo{
		ID:         uuid.New(),
		ProductID:  product.ID,
		ShopID:     shop.ID,
		ExternalID: 100,
		Quantity:   10,
		Price:      decimal.NewFromInt(500),
		PriceRRC:   decimal.NewFromInt(550),
	}
	require.NoError(t, db.Create(info).Error)
	return info
}

func newContact(t *testing.T, db *gorm.DB, userID uuid.UUID) *models.Contact {
	t.Helper()

	contact := &models.Contact{
		ID:     uuid.New(),
		UserID: userID,
		City:   "Moscow",
		Street: "Tverskaya",
		Phone:  "+79990001122",
	}
	require.NoError(t, db.Create(contact).Error)
	return contact
}

func TestRepositoryFindBasket_missing(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindBasket(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryCreateBasket_secondBasketRejected(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	first, err := repo.CreateBasket(context.Background(), userID)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, first.ID)

	_, err = repo.CreateBasket(context.Background(), userID)
	require.Error(t, err)
	assert.True(t, pkgdb.IsUniqueViolation(err, "idx_orders_user_basket"))
}

func TestRepositoryUpsertItem_overwritesQuantity(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	basket, err := repo.CreateBasket(context.Background(), userID)
	require.NoError(t, err)
	listing := newListing(t, db, "Upsert Shop")

	require.NoError(t, repo.UpsertItem(context.Background(), &models.OrderItem{
		OrderID:       basket.ID,
		ProductInfoID: listing.ID,
		Quantity:      2,
	}))
	require.NoError(t, repo.UpsertItem(context.Background(), &models.OrderItem{
		OrderID:       basket.ID,
		ProductInfoID: listing.ID,
		Quantity:      5,
	}))

	count, err := repo.CountItems(context.Background(), basket.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	loaded, err := repo.FindBasket(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 5, loaded.Items[0].Quantity)
	require.NotNil(t, loaded.Items[0].ProductInfo)
	assert.Equal(t, "Upsert Shop", loaded.Items[0].ProductInfo.Shop.Name)
}

func TestRepositoryUpdateItemQuantity_reportsMissingLine(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)

	basket, err := repo.CreateBasket(context.Background(), uuid.New())
	require.NoError(t, err)
	listing := newListing(t, db, "Update Shop")

	require.NoError(t, repo.UpsertItem(context.Background(), &models.OrderItem{
		OrderID:       basket.ID,
		ProductInfoID: listing.ID,
		Quantity:      1,
	}))

	found, err := repo.UpdateItemQuantity(context.Background(), basket.ID, listing.ID, 4)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.UpdateItemQuantity(context.Background(), basket.ID, uuid.New(), 4)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepositoryDeleteItems_itemizesPresentLines(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)

	basket, err := repo.CreateBasket(context.Background(), uuid.New())
	require.NoError(t, err)
	kept := newListing(t, db, "Kept Shop")
	removed := newListing(t, db, "Removed Shop")

	for _, listing := range []*models.ProductInfo{kept, removed} {
		require.NoError(t, repo.UpsertItem(context.Background(), &models.OrderItem{
			OrderID:       basket.ID,
			ProductInfoID: listing.ID,
			Quantity:      1,
		}))
	}

	missing := uuid.New()
	deleted, err := repo.DeleteItems(context.Background(), basket.ID, []uuid.UUID{removed.ID, missing})
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, removed.ID, deleted[0])

	count, err := repo.CountItems(context.Background(), basket.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryPlaceOrder_guardedOnBasketState(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	basket, err := repo.CreateBasket(context.Background(), userID)
	require.NoError(t, err)
	contact := newContact(t, db, userID)

	placed, err := repo.PlaceOrder(context.Background(), basket.ID, userID, contact.ID)
	require.NoError(t, err)
	assert.True(t, placed)

	order, err := repo.FindOrderByIDAndUser(context.Background(), basket.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStateNew, order.State)
	require.NotNil(t, order.ContactID)
	assert.Equal(t, contact.ID, *order.ContactID)
	require.NotNil(t, order.Contact)
	assert.Equal(t, "Moscow", order.Contact.City)

	placed, err = repo.PlaceOrder(context.Background(), basket.ID, userID, contact.ID)
	require.NoError(t, err)
	assert.False(t, placed)
}

func TestRepositoryListPlacedForShopOwner_fulfillmentQueue(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)

	listing := newListing(t, db, "Fulfillment Shop")
	var shop models.Shop
	require.NoError(t, db.First(&shop, "id = ?", listing.ShopID).Error)

	buyerID := uuid.New()
	basket, err := repo.CreateBasket(context.Background(), buyerID)
	require.NoError(t, err)
	require.NoError(t, repo.UpsertItem(context.Background(), &models.OrderItem{
		OrderID:       basket.ID,
		ProductInfoID: listing.ID,
		Quantity:      2,
	}))

	// Unplaced baskets with the shop's goods must stay out of the queue.
	queue, err := repo.ListPlacedForShopOwner(context.Background(), shop.UserID)
	require.NoError(t, err)
	assert.Empty(t, queue)

	contact := newContact(t, db, buyerID)
	placed, err := repo.PlaceOrder(context.Background(), basket.ID, buyerID, contact.ID)
	require.NoError(t, err)
	require.True(t, placed)

	queue, err = repo.ListPlacedForShopOwner(context.Background(), shop.UserID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, basket.ID, queue[0].ID)
	assert.Equal(t, enums.OrderStateNew, queue[0].State)
	require.Len(t, queue[0].Items, 1)
	assert.Equal(t, 2, queue[0].Items[0].Quantity)

	other, err := repo.ListPlacedForShopOwner(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRepositoryListPlacedByUser_excludesBasket(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	basket, err := repo.CreateBasket(context.Background(), userID)
	require.NoError(t, err)
	contact := newContact(t, db, userID)

	placed, err := repo.PlaceOrder(context.Background(), basket.ID, userID, contact.ID)
	require.NoError(t, err)
	require.True(t, placed)

	// A fresh basket opened after placing must stay out of the history.
	_, err = repo.CreateBasket(context.Background(), userID)
	require.NoError(t, err)

	orders, err := repo.ListPlacedByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, basket.ID, orders[0].ID)
	assert.Equal(t, enums.OrderStateNew, orders[0].State)
}
