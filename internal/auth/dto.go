package auth

import (
	"github.com/pyankovzhe/market-backend/internal/users"
)

// RegisterInput captures the fields required to open an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Company   *string
	Position  *string
	Role      string
}

// ConfirmInput redeems an email confirmation token.
type ConfirmInput struct {
	Email string
	Key   string
}

// LoginInput authenticates an existing account.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the issued bearer token and the account it belongs to.
type LoginResult struct {
	Token string         `json:"token"`
	User  *users.UserDTO `json:"user"`
}

// UpdateProfileInput holds the mutable profile fields. Nil pointers leave the
// stored value untouched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Company   *string
	Position  *string
	Password  *string
}
