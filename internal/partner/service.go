package partner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/pyankovzhe/market-backend/pkg/auth"
	"github.com/pyankovzhe/market-backend/pkg/db/models"
	"github.com/pyankovzhe/market-backend/pkg/enums"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
	"github.com/pyankovzhe/market-backend/pkg/logger"
	"github.com/pyankovzhe/market-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SyncRepository is the persistence surface a price-list sync runs on.
type SyncRepository interface {
	WithTx(tx *gorm.DB) SyncRepository
	FindShopByOwner(ctx context.Context, name string, ownerID uuid.UUID) (*models.Shop, error)
	CreateShop(ctx context.Context, shop *models.Shop) (*models.Shop, error)
	UpdateShopURL(ctx context.Context, shopID uuid.UUID, rawURL string) error
	UpsertCategory(ctx context.Context, externalID int, name string) (*models.Category, error)
	AttachShopToCategory(ctx context.Context, categoryID, shopID uuid.UUID) error
	DeleteListingsByShop(ctx context.Context, shopID uuid.UUID) error
	UpsertProduct(ctx context.Context, name string, categoryID uuid.UUID) (*models.Product, error)
	CreateListing(ctx context.Context, info *models.ProductInfo) (*models.ProductInfo, error)
	UpsertParameter(ctx context.Context, name string) (*models.Parameter, error)
	CreateProductParameter(ctx context.Context, link *models.ProductParameter) error
}

// SyncResult summarizes what a successful sync wrote.
type SyncResult struct {
	ShopID     uuid.UUID `json:"shop_id"`
	Shop       string    `json:"shop"`
	Categories int       `json:"categories"`
	Listings   int       `json:"listings"`
}

// Service runs partner price-list syncs.
type Service interface {
	Sync(ctx context.Context, principal pkgauth.Principal, rawURL string) (*SyncResult, error)
}

type service struct {
	repo    SyncRepository
	tx      txRunner
	fetcher Fetcher
	logg    *logger.Logger
}

// NewService wires the partner sync service.
func NewService(repo SyncRepository, tx txRunner, fetcher Fetcher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("partner repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		fetcher: fetcher,
		logg:    logg,
	}, nil
}

// Sync downloads the partner's price list and replaces the shop's catalog
// with it in one transaction. Nothing is written when any step fails.
func (s *service) Sync(ctx context.Context, principal pkgauth.Principal, rawURL string) (*SyncResult, error) {
	result, err := s.sync(ctx, principal, rawURL)
	if err != nil {
		metrics.SyncRuns.WithLabelValues(metrics.SyncResultFailed).Inc()
		return nil, err
	}
	metrics.SyncRuns.WithLabelValues(metrics.SyncResultOK).Inc()
	metrics.SyncListings.WithLabelValues(result.Shop).Set(float64(result.Listings))
	return result, nil
}

func (s *service) sync(ctx context.Context, principal pkgauth.Principal, rawURL string) (*SyncResult, error) {
	if !principal.IsShop() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only shop accounts can sync price lists")
	}

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "url is required")
	}
	if err := ValidateSourceURL(rawURL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price list url")
	}

	data, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch price list")
	}

	doc, err := ParsePriceList(data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed price list")
	}
	if err := doc.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price list").
			WithDetails(map[string]any{"error": err.Error()})
	}

	var result *SyncResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		applied, err := s.apply(ctx, txRepo, principal, rawURL, doc)
		if err != nil {
			return err
		}
		result = applied
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply price list")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"shop":     result.Shop,
			"listings": result.Listings,
		})
		s.logg.Info(logCtx, "partner.sync_applied")
	}
	return result, nil
}

func (s *service) apply(ctx context.Context, repo SyncRepository, principal pkgauth.Principal, rawURL string, doc *PriceList) (*SyncResult, error) {
	shopName := strings.TrimSpace(doc.Shop)

	shop, err := repo.FindShopByOwner(ctx, shopName, principal.ID)
	switch {
	case err == nil:
		if shop.State == enums.ShopStateClosed {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shop is closed and cannot accept syncs")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		shop, err = repo.CreateShop(ctx, &models.Shop{
			Name:   shopName,
			UserID: principal.ID,
			State:  enums.ShopStateOpen,
		})
		if err != nil {
			return nil, fmt.Errorf("create shop: %w", err)
		}
	default:
		return nil, fmt.Errorf("load shop: %w", err)
	}

	if err := repo.UpdateShopURL(ctx, shop.ID, rawURL); err != nil {
		return nil, fmt.Errorf("update shop url: %w", err)
	}

	categoriesByExternalID := make(map[int]*models.Category, len(doc.Categories))
	for _, entry := range doc.Categories {
		category, err := repo.UpsertCategory(ctx, entry.ID, strings.TrimSpace(entry.Name))
		if err != nil {
			return nil, fmt.Errorf("upsert category %d: %w", entry.ID, err)
		}
		if err := repo.AttachShopToCategory(ctx, category.ID, shop.ID); err != nil {
			return nil, fmt.Errorf("attach shop to category %d: %w", entry.ID, err)
		}
		categoriesByExternalID[entry.ID] = category
	}

	if err := repo.DeleteListingsByShop(ctx, shop.ID); err != nil {
		return nil, fmt.Errorf("clear listings: %w", err)
	}

	goods := doc.DedupedGoods()
	for _, good := range goods {
		category := categoriesByExternalID[good.Category]

		product, err := repo.UpsertProduct(ctx, strings.TrimSpace(good.Name), category.ID)
		if err != nil {
			return nil, fmt.Errorf("upsert product %d: %w", good.ID, err)
		}

		listing, err := repo.CreateListing(ctx, &models.ProductInfo{
			ProductID:  product.ID,
			ShopID:     shop.ID,
			ExternalID: good.ID,
			Model:      strings.TrimSpace(good.Model),
			Quantity:   good.Quantity,
			Price:      good.Price,
			PriceRRC:   good.PriceRRC,
		})
		if err != nil {
			return nil, fmt.Errorf("create listing %d: %w", good.ID, err)
		}

		for name, value := range good.Parameters {
			parameter, err := repo.UpsertParameter(ctx, strings.TrimSpace(name))
			if err != nil {
				return nil, fmt.Errorf("upsert parameter %q: %w", name, err)
			}
			if err := repo.CreateProductParameter(ctx, &models.ProductParameter{
				ProductInfoID: listing.ID,
				ParameterID:   parameter.ID,
				Value:         value,
			}); err != nil {
				return nil, fmt.Errorf("attach parameter %q: %w", name, err)
			}
		}
	}

	return &SyncResult{
		ShopID:     shop.ID,
		Shop:       shop.Name,
		Categories: len(doc.Categories),
		Listings:   len(goods),
	}, nil
}
