package basket

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/pyankovzhe/market-backend/pkg/auth"
	"github.com/pyankovzhe/market-backend/pkg/db/models"
	"github.com/pyankovzhe/market-backend/pkg/enums"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrderRepo struct {
	basket      *models.Order
	fulfillment []models.Order
	placed      bool

	upserts  []models.OrderItem
	updates  []models.OrderItem
	deleted  []uuid.UUID
	placedOK bool
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) OrderRepository { return s }

func (s *stubOrderRepo) FindBasket(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	if s.basket == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.basket, nil
}

func (s *stubOrderRepo) CreateBasket(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	s.basket = &models.Order{ID: uuid.New(), UserID: userID, State: enums.OrderStateBasket}
	return s.basket, nil
}

func (s *stubOrderRepo) UpsertItem(ctx context.Context, item *models.OrderItem) error {
	s.upserts = append(s.upserts, *item)
	return nil
}

func (s *stubOrderRepo) UpdateItemQuantity(ctx context.Context, orderID, productInfoID uuid.UUID, quantity int) (bool, error) {
	if s.basket == nil {
		return false, nil
	}
	for _, line := range s.basket.Items {
		if line.ProductInfoID == productInfoID {
			s.updates = append(s.updates, models.OrderItem{OrderID: orderID, ProductInfoID: productInfoID, Quantity: quantity})
			return true, nil
		}
	}
	return false, nil
}

func (s *stubOrderRepo) DeleteItems(ctx context.Context, orderID uuid.UUID, productInfoIDs []uuid.UUID) ([]uuid.UUID, error) {
	var found []uuid.UUID
	for _, id := range productInfoIDs {
		for _, line := range s.basket.Items {
			if line.ProductInfoID == id {
				found = append(found, id)
			}
		}
	}
	s.deleted = append(s.deleted, found...)
	return found, nil
}

func (s *stubOrderRepo) CountItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	if s.basket == nil {
		return 0, nil
	}
	return int64(len(s.basket.Items)), nil
}

func (s *stubOrderRepo) PlaceOrder(ctx context.Context, orderID, userID, contactID uuid.UUID) (bool, error) {
	if !s.placedOK {
		return false, nil
	}
	s.placed = true
	s.basket.State = enums.OrderStateNew
	s.basket.ContactID = &contactID
	return true, nil
}

func (s *stubOrderRepo) FindOrderByIDAndUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if s.basket == nil || s.basket.ID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.basket, nil
}

func (s *stubOrderRepo) ListPlacedByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if s.basket != nil && s.basket.State != enums.OrderStateBasket {
		return []models.Order{*s.basket}, nil
	}
	return nil, nil
}

func (s *stubOrderRepo) ListPlacedForShopOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Order, error) {
	return s.fulfillment, nil
}

type stubListings struct {
	byID map[uuid.UUID]models.ProductInfo
}

func (s *stubListings) FindListings(ctx context.Context, ids []uuid.UUID) ([]models.ProductInfo, error) {
	var rows []models.ProductInfo
	for _, id := range ids {
		if listing, ok := s.byID[id]; ok {
			rows = append(rows, listing)
		}
	}
	return rows, nil
}

type stubContacts struct {
	contact *models.Contact
}

func (s *stubContacts) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Contact, error) {
	if s.contact == nil || s.contact.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.contact, nil
}

type stubUsers struct {
	user *models.User
}

func (s *stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

type nopMailer struct{}

func (nopMailer) Send(ctx context.Context, to, subject, body string) error { return nil }

func openListing(id uuid.UUID) models.ProductInfo {
	return models.ProductInfo{
		ID:   id,
		Shop: &models.Shop{ID: uuid.New(), Name: "Svyaznoy", State: enums.ShopStateOpen},
	}
}

func newBasketService(t *testing.T, repo *stubOrderRepo, listings *stubListings, contacts *stubContacts, users *stubUsers) Service {
	t.Helper()
	if listings == nil {
		listings = &stubListings{}
	}
	if contacts == nil {
		contacts = &stubContacts{}
	}
	if users == nil {
		users = &stubUsers{user: &models.User{ID: uuid.New(), Email: "buyer@example.com"}}
	}
	svc, err := NewService(repo, stubTx{}, listings, contacts, users, nopMailer{}, nil)
	if err != nil {
		t.Fatalf("unexpected error building service: %v", err)
	}
	return svc
}

func buyer() pkgauth.Principal {
	return pkgauth.Principal{ID: uuid.New(), Role: enums.UserRoleBuyer}
}

func TestGetReturnsEmptyBasketWhenNoneExists(t *testing.T) {
	svc := newBasketService(t, &stubOrderRepo{}, nil, nil, nil)

	dto, err := svc.Get(context.Background(), buyer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.ID != nil {
		t.Fatal("expected no basket id")
	}
	if len(dto.Items) != 0 || !dto.Total.IsZero() {
		t.Fatalf("expected empty basket, got %+v", dto)
	}
}

func TestAddItemsRejectsNonPositiveQuantity(t *testing.T) {
	svc := newBasketService(t, &stubOrderRepo{}, nil, nil, nil)

	_, err := svc.AddItems(context.Background(), buyer(), []ItemInput{
		{ProductInfoID: uuid.New(), Quantity: 0},
	})
	if err == nil {
		t.Fatal("expected error for zero quantity")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddItemsUnknownListingIsNotFound(t *testing.T) {
	repo := &stubOrderRepo{}
	svc := newBasketService(t, repo, &stubListings{byID: map[uuid.UUID]models.ProductInfo{}}, nil, nil)

	_, err := svc.AddItems(context.Background(), buyer(), []ItemInput{
		{ProductInfoID: uuid.New(), Quantity: 1},
	})
	if err == nil {
		t.Fatal("expected error for unknown listing")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(repo.upserts) != 0 {
		t.Fatal("expected no writes when validation fails")
	}
}

func TestAddItemsClosedShopIsStateConflict(t *testing.T) {
	listingID := uuid.New()
	closed := openListing(listingID)
	closed.Shop.State = enums.ShopStateClosed

	repo := &stubOrderRepo{}
	svc := newBasketService(t, repo, &stubListings{byID: map[uuid.UUID]models.ProductInfo{listingID: closed}}, nil, nil)

	_, err := svc.AddItems(context.Background(), buyer(), []ItemInput{
		{ProductInfoID: listingID, Quantity: 1},
	})
	if err == nil {
		t.Fatal("expected error for closed shop")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(repo.upserts) != 0 {
		t.Fatal("expected no writes when a line fails validation")
	}
}

func TestAddItemsCreatesBasketAndCollapsesDuplicates(t *testing.T) {
	listingID := uuid.New()
	repo := &stubOrderRepo{}
	svc := newBasketService(t, repo, &stubListings{byID: map[uuid.UUID]models.ProductInfo{listingID: openListing(listingID)}}, nil, nil)

	_, err := svc.AddItems(context.Background(), buyer(), []ItemInput{
		{ProductInfoID: listingID, Quantity: 2},
		{ProductInfoID: listingID, Quantity: 7},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.basket == nil {
		t.Fatal("expected basket to be created")
	}
	if len(repo.upserts) != 1 {
		t.Fatalf("expected duplicates to collapse into one upsert, got %d", len(repo.upserts))
	}
	if repo.upserts[0].Quantity != 7 {
		t.Fatalf("expected last quantity to win, got %d", repo.upserts[0].Quantity)
	}
}

func TestUpdateQuantitiesUnknownLineIsNotFound(t *testing.T) {
	known := uuid.New()
	repo := &stubOrderRepo{
		basket: &models.Order{
			ID:    uuid.New(),
			State: enums.OrderStateBasket,
			Items: []models.OrderItem{{ProductInfoID: known, Quantity: 1}},
		},
	}
	svc := newBasketService(t, repo, nil, nil, nil)

	_, err := svc.UpdateQuantities(context.Background(), buyer(), []ItemInput{
		{ProductInfoID: known, Quantity: 3},
		{ProductInfoID: uuid.New(), Quantity: 2},
	})
	if err == nil {
		t.Fatal("expected error for unknown line")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveItemsItemizesMissing(t *testing.T) {
	present := uuid.New()
	absent := uuid.New()
	repo := &stubOrderRepo{
		basket: &models.Order{
			ID:    uuid.New(),
			State: enums.OrderStateBasket,
			Items: []models.OrderItem{{ProductInfoID: present, Quantity: 1}},
		},
	}
	svc := newBasketService(t, repo, nil, nil, nil)

	result, err := svc.RemoveItems(context.Background(), buyer(), []uuid.UUID{present, absent})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Removed) != 1 || result.Removed[0] != present {
		t.Fatalf("expected present id removed, got %+v", result.Removed)
	}
	if len(result.Missing) != 1 || result.Missing[0] != absent {
		t.Fatalf("expected absent id reported, got %+v", result.Missing)
	}
}

func TestPlaceRequiresContact(t *testing.T) {
	repo := &stubOrderRepo{
		basket: &models.Order{
			ID:    uuid.New(),
			State: enums.OrderStateBasket,
			Items: []models.OrderItem{{ProductInfoID: uuid.New(), Quantity: 1}},
		},
	}
	svc := newBasketService(t, repo, nil, &stubContacts{}, nil)

	_, err := svc.Place(context.Background(), buyer(), uuid.New())
	if err == nil {
		t.Fatal("expected error for unknown contact")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlaceMissingBasketIsNotFound(t *testing.T) {
	contact := &models.Contact{ID: uuid.New()}
	repo := &stubOrderRepo{}
	svc := newBasketService(t, repo, nil, &stubContacts{contact: contact}, nil)

	_, err := svc.Place(context.Background(), buyer(), contact.ID)
	if err == nil {
		t.Fatal("expected error when no basket exists")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlaceEmptyBasketSucceeds(t *testing.T) {
	contact := &models.Contact{ID: uuid.New()}
	repo := &stubOrderRepo{
		basket:   &models.Order{ID: uuid.New(), State: enums.OrderStateBasket},
		placedOK: true,
	}
	svc := newBasketService(t, repo, nil, &stubContacts{contact: contact}, nil)

	dto, err := svc.Place(context.Background(), buyer(), contact.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.State != enums.OrderStateNew {
		t.Fatalf("expected order in new state, got %s", dto.State)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(dto.Items))
	}
}

func TestPlaceLosingRaceIsStateConflict(t *testing.T) {
	contact := &models.Contact{ID: uuid.New()}
	repo := &stubOrderRepo{
		basket: &models.Order{
			ID:    uuid.New(),
			State: enums.OrderStateBasket,
			Items: []models.OrderItem{{ProductInfoID: uuid.New(), Quantity: 1}},
		},
		placedOK: false,
	}
	svc := newBasketService(t, repo, nil, &stubContacts{contact: contact}, nil)

	_, err := svc.Place(context.Background(), buyer(), contact.ID)
	if err == nil {
		t.Fatal("expected error when guarded update matches no rows")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestListFulfillmentRejectsBuyers(t *testing.T) {
	svc := newBasketService(t, &stubOrderRepo{}, nil, nil, nil)

	_, err := svc.ListFulfillment(context.Background(), buyer())
	if err == nil {
		t.Fatal("expected error for buyer principal")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestListFulfillmentReturnsPlacedOrders(t *testing.T) {
	placed := models.Order{
		ID:    uuid.New(),
		State: enums.OrderStateNew,
		Items: []models.OrderItem{{ProductInfoID: uuid.New(), Quantity: 2}},
	}
	repo := &stubOrderRepo{fulfillment: []models.Order{placed}}
	svc := newBasketService(t, repo, nil, nil, nil)

	rows, err := svc.ListFulfillment(context.Background(), pkgauth.Principal{ID: uuid.New(), Role: enums.UserRoleShop})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one order, got %d", len(rows))
	}
	if rows[0].State != enums.OrderStateNew {
		t.Fatalf("expected order in new state, got %s", rows[0].State)
	}
}

func TestPlaceMovesBasketToNew(t *testing.T) {
	contact := &models.Contact{ID: uuid.New()}
	repo := &stubOrderRepo{
		basket: &models.Order{
			ID:    uuid.New(),
			State: enums.OrderStateBasket,
			Items: []models.OrderItem{{ProductInfoID: uuid.New(), Quantity: 1}},
		},
		placedOK: true,
	}
	svc := newBasketService(t, repo, nil, &stubContacts{contact: contact}, nil)

	dto, err := svc.Place(context.Background(), buyer(), contact.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.placed {
		t.Fatal("expected guarded update to run")
	}
	if dto.State != enums.OrderStateNew {
		t.Fatalf("expected order in new state, got %s", dto.State)
	}
	if dto.ContactID == nil || *dto.ContactID != contact.ID {
		t.Fatalf("expected contact recorded, got %v", dto.ContactID)
	}
}
