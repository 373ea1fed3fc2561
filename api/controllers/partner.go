package controllers

import (
	"net/http"

	"github.com/pyankovzhe/market-backend/api/middleware"
	"github.com/pyankovzhe/market-backend/api/responses"
	"github.com/pyankovzhe/market-backend/api/validators"
	"github.com/pyankovzhe/market-backend/internal/partner"
	"github.com/pyankovzhe/market-backend/pkg/logger"
)

type partnerUpdatePayload struct {
	URL string `json:"url" validate:"required,url"`
}

// PartnerUpdate triggers a full price-list sync from the partner's URL.
func PartnerUpdate(svc partner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload partnerUpdatePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Sync(ctx, principal, payload.URL)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
