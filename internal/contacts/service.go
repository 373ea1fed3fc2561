package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/pyankovzhe/market-backend/pkg/auth"
	"github.com/pyankovzhe/market-backend/pkg/db/models"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
)

// The original address book caps how many delivery contacts a user may keep.
const maxContactsPerUser = 5

type contactRepository interface {
	Create(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Contact, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Contact, error)
	DeleteByIDsAndUser(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]uuid.UUID, error)
}

// Service exposes the contact book operations.
type Service interface {
	Create(ctx context.Context, principal pkgauth.Principal, input ContactInput) (*ContactDTO, error)
	Update(ctx context.Context, principal pkgauth.Principal, id uuid.UUID, input UpdateContactInput) (*ContactDTO, error)
	List(ctx context.Context, principal pkgauth.Principal) ([]ContactDTO, error)
	Delete(ctx context.Context, principal pkgauth.Principal, ids []uuid.UUID) (*DeleteResult, error)
}

type service struct {
	repo contactRepository
}

// NewService wires the contact service.
func NewService(repo contactRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("contact repository required")
	}
	return &service{repo: repo}, nil
}

// ContactInput captures a full delivery address.
type ContactInput struct {
	City      string
	Street    string
	House     string
	Structure string
	Building  string
	Apartment string
	Phone     string
}

// UpdateContactInput holds partial updates. Nil pointers keep stored values.
type UpdateContactInput struct {
	City      *string
	Street    *string
	House     *string
	Structure *string
	Building  *string
	Apartment *string
	Phone     *string
}

// ContactDTO is the wire shape of a delivery contact.
type ContactDTO struct {
	ID        uuid.UUID `json:"id"`
	City      string    `json:"city"`
	Street    string    `json:"street"`
	House     string    `json:"house,omitempty"`
	Structure string    `json:"structure,omitempty"`
	Building  string    `json:"building,omitempty"`
	Apartment string    `json:"apartment,omitempty"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// DeleteResult itemizes a bulk delete: ids removed and ids that did not
// belong to the caller or did not exist.
type DeleteResult struct {
	Deleted []uuid.UUID `json:"deleted"`
	Missing []uuid.UUID `json:"missing,omitempty"`
}

func toDTO(contact *models.Contact) *ContactDTO {
	if contact == nil {
		return nil
	}
	return &ContactDTO{
		ID:        contact.ID,
		City:      contact.City,
		Street:    contact.Street,
		House:     contact.House,
		Structure: contact.Structure,
		Building:  contact.Building,
		Apartment: contact.Apartment,
		Phone:     contact.Phone,
		CreatedAt: contact.CreatedAt,
	}
}

// Create adds a delivery contact for the caller.
func (s *service) Create(ctx context.Context, principal pkgauth.Principal, input ContactInput) (*ContactDTO, error) {
	if strings.TrimSpace(input.City) == "" || strings.TrimSpace(input.Street) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city and street are required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}

	existing, err := s.repo.ListByUser(ctx, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contacts")
	}
	if len(existing) >= maxContactsPerUser {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d contacts allowed", maxContactsPerUser))
	}

	created, err := s.repo.Create(ctx, &models.Contact{
		UserID:    principal.ID,
		City:      strings.TrimSpace(input.City),
		Street:    strings.TrimSpace(input.Street),
		House:     strings.TrimSpace(input.House),
		Structure: strings.TrimSpace(input.Structure),
		Building:  strings.TrimSpace(input.Building),
		Apartment: strings.TrimSpace(input.Apartment),
		Phone:     strings.TrimSpace(input.Phone),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create contact")
	}
	return toDTO(created), nil
}

// Update applies partial changes to a contact owned by the caller.
func (s *service) Update(ctx context.Context, principal pkgauth.Principal, id uuid.UUID, input UpdateContactInput) (*ContactDTO, error) {
	contact, err := s.repo.FindByIDAndUser(ctx, id, principal.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contact")
	}

	if input.City != nil {
		if strings.TrimSpace(*input.City) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "city cannot be empty")
		}
		contact.City = strings.TrimSpace(*input.City)
	}
	if input.Street != nil {
		if strings.TrimSpace(*input.Street) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "street cannot be empty")
		}
		contact.Street = strings.TrimSpace(*input.Street)
	}
	if input.House != nil {
		contact.House = strings.TrimSpace(*input.House)
	}
	if input.Structure != nil {
		contact.Structure = strings.TrimSpace(*input.Structure)
	}
	if input.Building != nil {
		contact.Building = strings.TrimSpace(*input.Building)
	}
	if input.Apartment != nil {
		contact.Apartment = strings.TrimSpace(*input.Apartment)
	}
	if input.Phone != nil {
		if strings.TrimSpace(*input.Phone) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone cannot be empty")
		}
		contact.Phone = strings.TrimSpace(*input.Phone)
	}

	updated, err := s.repo.Update(ctx, contact)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update contact")
	}
	return toDTO(updated), nil
}

// List returns the caller's contacts.
func (s *service) List(ctx context.Context, principal pkgauth.Principal) ([]ContactDTO, error) {
	rows, err := s.repo.ListByUser(ctx, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contacts")
	}
	result := make([]ContactDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *toDTO(&rows[i]))
	}
	return result, nil
}

// Delete removes the given contacts and itemizes which ids were deleted and
// which were not found for the caller.
func (s *service) Delete(ctx context.Context, principal pkgauth.Principal, ids []uuid.UUID) (*DeleteResult, error) {
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one contact id is required")
	}

	unique := make([]uuid.UUID, 0, len(ids))
	seen := map[uuid.UUID]struct{}{}
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact id cannot be empty")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	deleted, err := s.repo.DeleteByIDsAndUser(ctx, unique, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete contacts")
	}

	deletedSet := map[uuid.UUID]struct{}{}
	for _, id := range deleted {
		deletedSet[id] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range unique {
		if _, ok := deletedSet[id]; !ok {
			missing = append(missing, id)
		}
	}

	return &DeleteResult{Deleted: deleted, Missing: missing}, nil
}
