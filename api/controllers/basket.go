package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pyankovzhe/market-backend/api/middleware"
	"github.com/pyankovzhe/market-backend/api/responses"
	"github.com/pyankovzhe/market-backend/api/validators"
	"github.com/pyankovzhe/market-backend/internal/basket"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
	"github.com/pyankovzhe/market-backend/pkg/logger"
)

type basketItemPayload struct {
	ProductInfoID uuid.UUID `json:"product_info_id" validate:"required"`
	Quantity      int       `json:"quantity" validate:"required,gt=0"`
}

type basketItemsPayload struct {
	Items []basketItemPayload `json:"items" validate:"required,min=1,dive"`
}

type removeItemsPayload struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

type placeOrderPayload struct {
	ContactID uuid.UUID `json:"contact_id" validate:"required"`
}

func toItemInputs(payload basketItemsPayload) []basket.ItemInput {
	items := make([]basket.ItemInput, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, basket.ItemInput{
			ProductInfoID: item.ProductInfoID,
			Quantity:      item.Quantity,
		})
	}
	return items
}

// GetBasket returns the caller's open basket.
func GetBasket(svc basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.Get(ctx, principal)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// AddBasketItems adds or overwrites basket lines atomically.
func AddBasketItems(svc basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload basketItemsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.AddItems(ctx, principal, toItemInputs(payload))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// UpdateBasketItems sets quantities on existing basket lines.
func UpdateBasketItems(svc basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload basketItemsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.UpdateQuantities(ctx, principal, toItemInputs(payload))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// RemoveBasketItems deletes basket lines and itemizes the outcome.
func RemoveBasketItems(svc basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload removeItemsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.RemoveItems(ctx, principal, payload.IDs)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PlaceOrder moves the basket to the new state.
func PlaceOrder(svc basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload placeOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.Place(ctx, principal, payload.ContactID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// GetOrder returns one of the caller's orders.
func GetOrder(svc basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a uuid"))
			return
		}

		dto, err := svc.GetOrder(ctx, principal, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// ListPartnerOrders returns the shop's fulfillment queue: placed orders
// containing the partner's goods, across all buyers.
func ListPartnerOrders(svc basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListFulfillment(ctx, principal)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// ListOrders returns the caller's placed orders.
func ListOrders(svc basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListPlaced(ctx, principal)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}
