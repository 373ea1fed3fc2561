package controllers

import (
	"net/http"

	"github.com/pyankovzhe/market-backend/api/middleware"
	"github.com/pyankovzhe/market-backend/api/responses"
	"github.com/pyankovzhe/market-backend/api/validators"
	"github.com/pyankovzhe/market-backend/internal/auth"
	"github.com/pyankovzhe/market-backend/pkg/logger"
)

type registerPayload struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Company   *string `json:"company"`
	Position  *string `json:"position"`
	Role      string  `json:"role" validate:"omitempty,oneof=buyer shop"`
}

type confirmPayload struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required"`
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateProfilePayload struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Company   *string `json:"company"`
	Position  *string `json:"position"`
	Password  *string `json:"password" validate:"omitempty,min=8"`
}

// Register opens a new inactive account and mails its confirmation token.
func Register(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload registerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.Register(ctx, auth.RegisterInput{
			Email:     payload.Email,
			Password:  payload.Password,
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Company:   payload.Company,
			Position:  payload.Position,
			Role:      payload.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// ConfirmEmail redeems a confirmation token and activates the account.
func ConfirmEmail(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload confirmPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.ConfirmEmail(ctx, auth.ConfirmInput{
			Email: payload.Email,
			Key:   payload.Token,
		}); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"confirmed": true})
	}
}

// Login verifies credentials and returns a bearer token.
func Login(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload loginPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Login(ctx, auth.LoginInput{
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// Logout revokes the presented token's session.
func Logout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accessID, err := middleware.AccessIDFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Logout(ctx, accessID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"logged_out": true})
	}
}

// GetProfile returns the caller's account.
func GetProfile(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.GetProfile(ctx, principal)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, user)
	}
}

// UpdateProfile applies partial profile changes to the caller's account.
func UpdateProfile(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateProfilePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.UpdateProfile(ctx, principal, auth.UpdateProfileInput{
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Company:   payload.Company,
			Position:  payload.Position,
			Password:  payload.Password,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, user)
	}
}
