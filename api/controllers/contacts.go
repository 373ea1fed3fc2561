package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pyankovzhe/market-backend/api/middleware"
	"github.com/pyankovzhe/market-backend/api/responses"
	"github.com/pyankovzhe/market-backend/api/validators"
	"github.com/pyankovzhe/market-backend/internal/contacts"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
	"github.com/pyankovzhe/market-backend/pkg/logger"
)

type contactPayload struct {
	City      string `json:"city" validate:"required"`
	Street    string `json:"street" validate:"required"`
	House     string `json:"house"`
	Structure string `json:"structure"`
	Building  string `json:"building"`
	Apartment string `json:"apartment"`
	Phone     string `json:"phone" validate:"required"`
}

type updateContactPayload struct {
	City      *string `json:"city"`
	Street    *string `json:"street"`
	House     *string `json:"house"`
	Structure *string `json:"structure"`
	Building  *string `json:"building"`
	Apartment *string `json:"apartment"`
	Phone     *string `json:"phone"`
}

type deleteContactsPayload struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// CreateContact adds a delivery contact to the caller's address book.
func CreateContact(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload contactPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		contact, err := svc.Create(ctx, principal, contacts.ContactInput{
			City:      payload.City,
			Street:    payload.Street,
			House:     payload.House,
			Structure: payload.Structure,
			Building:  payload.Building,
			Apartment: payload.Apartment,
			Phone:     payload.Phone,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, contact)
	}
}

// UpdateContact applies partial changes to one of the caller's contacts.
func UpdateContact(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "contactID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "contact id must be a uuid"))
			return
		}

		var payload updateContactPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		contact, err := svc.Update(ctx, principal, id, contacts.UpdateContactInput{
			City:      payload.City,
			Street:    payload.Street,
			House:     payload.House,
			Structure: payload.Structure,
			Building:  payload.Building,
			Apartment: payload.Apartment,
			Phone:     payload.Phone,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, contact)
	}
}

// ListContacts returns the caller's address book.
func ListContacts(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.List(ctx, principal)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// DeleteContacts removes contacts in bulk and itemizes the outcome.
func DeleteContacts(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := middleware.PrincipalFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload deleteContactsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Delete(ctx, principal, payload.IDs)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
