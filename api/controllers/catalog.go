package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pyankovzhe/market-backend/api/responses"
	"github.com/pyankovzhe/market-backend/api/validators"
	"github.com/pyankovzhe/market-backend/internal/catalog"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
	"github.com/pyankovzhe/market-backend/pkg/logger"
)

// ListShops returns the shops currently accepting orders.
func ListShops(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rows, err := svc.ListShops(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// ListCategories returns every catalog category.
func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rows, err := svc.ListCategories(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// SearchListings returns listings from open shops, optionally filtered by
// shop_id and category_id query parameters.
func SearchListings(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		shopID, err := validators.ParseQueryUUID(r, "shop_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryInt(r, "category_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.SearchListings(ctx, catalog.ListingFilter{
			ShopID:             shopID,
			CategoryExternalID: categoryID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// GetListing returns a single listing's detail.
func GetListing(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "listingID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "listing id must be a uuid"))
			return
		}

		dto, err := svc.GetListing(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}
