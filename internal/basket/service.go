package basket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/pyankovzhe/market-backend/pkg/auth"
	"github.com/pyankovzhe/market-backend/pkg/db"
	"github.com/pyankovzhe/market-backend/pkg/db/models"
	"github.com/pyankovzhe/market-backend/pkg/enums"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
	"github.com/pyankovzhe/market-backend/pkg/logger"
	"github.com/pyankovzhe/market-backend/pkg/mailer"
	"github.com/pyankovzhe/market-backend/pkg/metrics"
)

const orderMailTimeout = 15 * time.Second

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderRepository is the persistence surface the basket service runs on.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	FindBasket(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	CreateBasket(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	UpsertItem(ctx context.Context, item *models.OrderItem) error
	UpdateItemQuantity(ctx context.Context, orderID, productInfoID uuid.UUID, quantity int) (bool, error)
	DeleteItems(ctx context.Context, orderID uuid.UUID, productInfoIDs []uuid.UUID) ([]uuid.UUID, error)
	CountItems(ctx context.Context, orderID uuid.UUID) (int64, error)
	PlaceOrder(ctx context.Context, orderID, userID, contactID uuid.UUID) (bool, error)
	FindOrderByIDAndUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListPlacedByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListPlacedForShopOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Order, error)
}

type listingLoader interface {
	FindListings(ctx context.Context, ids []uuid.UUID) ([]models.ProductInfo, error)
}

type contactLoader interface {
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Contact, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service exposes basket and order operations.
type Service interface {
	Get(ctx context.Context, principal pkgauth.Principal) (*OrderDTO, error)
	AddItems(ctx context.Context, principal pkgauth.Principal, items []ItemInput) (*OrderDTO, error)
	UpdateQuantities(ctx context.Context, principal pkgauth.Principal, items []ItemInput) (*OrderDTO, error)
	RemoveItems(ctx context.Context, principal pkgauth.Principal, productInfoIDs []uuid.UUID) (*RemoveResult, error)
	Place(ctx context.Context, principal pkgauth.Principal, contactID uuid.UUID) (*OrderDTO, error)
	GetOrder(ctx context.Context, principal pkgauth.Principal, orderID uuid.UUID) (*OrderDTO, error)
	ListPlaced(ctx context.Context, principal pkgauth.Principal) ([]OrderDTO, error)
	ListFulfillment(ctx context.Context, principal pkgauth.Principal) ([]OrderDTO, error)
}

type service struct {
	repo     OrderRepository
	tx       txRunner
	listings listingLoader
	contacts contactLoader
	users    userLoader
	mail     mailer.Sender
	logg     *logger.Logger
}

// NewService wires the basket service.
func NewService(repo OrderRepository, tx txRunner, listings listingLoader, contacts contactLoader, users userLoader, mail mailer.Sender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing loader required")
	}
	if contacts == nil {
		return nil, fmt.Errorf("contact loader required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		listings: listings,
		contacts: contacts,
		users:    users,
		mail:     mail,
		logg:     logg,
	}, nil
}

// Get returns the caller's basket, empty when no basket exists yet.
func (s *service) Get(ctx context.Context, principal pkgauth.Principal) (*OrderDTO, error) {
	order, err := s.repo.FindBasket(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyBasketDTO(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load basket")
	}
	return orderToDTO(order), nil
}

// collapseItems merges repeated listing ids, keeping the last quantity.
func collapseItems(items []ItemInput) []ItemInput {
	lastIndex := map[uuid.UUID]int{}
	for i, item := range items {
		lastIndex[item.ProductInfoID] = i
	}
	result := make([]ItemInput, 0, len(lastIndex))
	for i, item := range items {
		if lastIndex[item.ProductInfoID] == i {
			result = append(result, item)
		}
	}
	return result
}

// validateItems checks every requested line before anything is written:
// positive quantities, listings that exist, and shops still open.
func (s *service) validateItems(ctx context.Context, items []ItemInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductInfoID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product_info_id is required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"product_info_id": item.ProductInfoID})
		}
		ids = append(ids, item.ProductInfoID)
	}

	listings, err := s.listings.FindListings(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listings")
	}

	byID := make(map[uuid.UUID]*models.ProductInfo, len(listings))
	for i := range listings {
		byID[listings[i].ID] = &listings[i]
	}

	for _, item := range items {
		listing, ok := byID[item.ProductInfoID]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found").
				WithDetails(map[string]any{"product_info_id": item.ProductInfoID})
		}
		if listing.Shop != nil && listing.Shop.State == enums.ShopStateClosed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shop is closed").
				WithDetails(map[string]any{"product_info_id": item.ProductInfoID})
		}
	}
	return nil
}

// ensureBasket returns the open basket, creating one when absent. This runs
// outside the line-writing transaction: a concurrent create losing the
// unique-index race would poison an enclosing transaction, so the conflict
// is absorbed here with a re-read of the winner's row.
func (s *service) ensureBasket(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindBasket(ctx, userID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created, err := s.repo.CreateBasket(ctx, userID)
	if err == nil {
		return created, nil
	}
	if db.IsUniqueViolation(err, "idx_orders_user_basket") {
		return s.repo.FindBasket(ctx, userID)
	}
	return nil, err
}

// AddItems validates every requested line, then writes them all atomically.
// Re-sent lines overwrite the stored quantity, so retries are idempotent.
func (s *service) AddItems(ctx context.Context, principal pkgauth.Principal, items []ItemInput) (*OrderDTO, error) {
	items = collapseItems(items)
	if err := s.validateItems(ctx, items); err != nil {
		return nil, err
	}

	order, err := s.ensureBasket(ctx, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure basket")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		for _, item := range items {
			if err := txRepo.UpsertItem(ctx, &models.OrderItem{
				OrderID:       order.ID,
				ProductInfoID: item.ProductInfoID,
				Quantity:      item.Quantity,
			}); err != nil {
				return fmt.Errorf("upsert line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add items")
	}

	return s.Get(ctx, principal)
}

// UpdateQuantities sets quantities on existing basket lines. Any unknown
// line fails the whole request before changes commit.
func (s *service) UpdateQuantities(ctx context.Context, principal pkgauth.Principal, items []ItemInput) (*OrderDTO, error) {
	items = collapseItems(items)
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for _, item := range items {
		if item.ProductInfoID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_info_id is required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"product_info_id": item.ProductInfoID})
		}
	}

	order, err := s.repo.FindBasket(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "basket is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load basket")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for _, item := range items {
			found, err := txRepo.UpdateItemQuantity(ctx, order.ID, item.ProductInfoID, item.Quantity)
			if err != nil {
				return fmt.Errorf("update line: %w", err)
			}
			if !found {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not in basket").
					WithDetails(map[string]any{"product_info_id": item.ProductInfoID})
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quantities")
	}

	return s.Get(ctx, principal)
}

// RemoveItems deletes the given lines and reports which ids were absent.
func (s *service) RemoveItems(ctx context.Context, principal pkgauth.Principal, productInfoIDs []uuid.UUID) (*RemoveResult, error) {
	if len(productInfoIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one product info id is required")
	}
	unique := make([]uuid.UUID, 0, len(productInfoIDs))
	seen := map[uuid.UUID]struct{}{}
	for _, id := range productInfoIDs {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product info id cannot be empty")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	order, err := s.repo.FindBasket(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "basket is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load basket")
	}

	removed, err := s.repo.DeleteItems(ctx, order.ID, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove items")
	}

	removedSet := map[uuid.UUID]struct{}{}
	for _, id := range removed {
		removedSet[id] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range unique {
		if _, ok := removedSet[id]; !ok {
			missing = append(missing, id)
		}
	}

	dto, err := s.Get(ctx, principal)
	if err != nil {
		return nil, err
	}
	return &RemoveResult{Removed: removed, Missing: missing, Basket: dto}, nil
}

// Place moves the basket to the new state against the given delivery
// contact. The guarded update makes concurrent placements lose cleanly.
func (s *service) Place(ctx context.Context, principal pkgauth.Principal, contactID uuid.UUID) (*OrderDTO, error) {
	if contactID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact_id is required")
	}

	if _, err := s.contacts.FindByIDAndUser(ctx, contactID, principal.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contact")
	}

	order, err := s.repo.FindBasket(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no basket to place")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load basket")
	}

	placed, err := s.repo.PlaceOrder(ctx, order.ID, principal.ID, contactID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}
	if !placed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "basket already placed")
	}

	metrics.OrdersPlaced.Inc()
	s.sendOrderMail(ctx, principal.ID, order.ID)

	result, err := s.repo.FindOrderByIDAndUser(ctx, order.ID, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return orderToDTO(result), nil
}

func (s *service) sendOrderMail(ctx context.Context, userID, orderID uuid.UUID) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "orders.notification_user_lookup_failed")
		}
		return
	}

	go func() {
		mailCtx, cancel := context.WithTimeout(context.Background(), orderMailTimeout)
		defer cancel()

		body := fmt.Sprintf("Your order %s has been placed and is now being processed.", orderID)
		if err := s.mail.Send(mailCtx, user.Email, "Order placed", body); err != nil && s.logg != nil {
			s.logg.Error(s.logg.WithUserID(mailCtx, userID.String()), "orders.notification_failed", err)
		}
	}()
}

// GetOrder loads one of the caller's orders.
func (s *service) GetOrder(ctx context.Context, principal pkgauth.Principal, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOrderByIDAndUser(ctx, orderID, principal.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return orderToDTO(order), nil
}

// ListPlaced returns the caller's orders that left the basket state.
func (s *service) ListPlaced(ctx context.Context, principal pkgauth.Principal) ([]OrderDTO, error) {
	rows, err := s.repo.ListPlacedByUser(ctx, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	result := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *orderToDTO(&rows[i]))
	}
	return result, nil
}

// ListFulfillment returns placed orders containing the partner's goods,
// across all buyers.
func (s *service) ListFulfillment(ctx context.Context, principal pkgauth.Principal) ([]OrderDTO, error) {
	if !principal.IsShop() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only shop accounts can view the fulfillment queue")
	}

	rows, err := s.repo.ListPlacedForShopOwner(ctx, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fulfillment orders")
	}
	result := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *orderToDTO(&rows[i]))
	}
	return result, nil
}
