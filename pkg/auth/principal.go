package auth

import (
	"github.com/google/uuid"

	"github.com/pyankovzhe/market-backend/pkg/enums"
)

// Principal is the authenticated actor a request runs as. Handlers build it
// from verified claims and pass it into services explicitly; no service
// reads identity from ambient request state.
type Principal struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// IsShop reports whether the principal may manage a shop catalog.
func (p Principal) IsShop() bool {
	return p.Role == enums.UserRoleShop
}
