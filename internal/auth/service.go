package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pyankovzhe/market-backend/internal/users"
	pkgauth "github.com/pyankovzhe/market-backend/pkg/auth"
	"github.com/pyankovzhe/market-backend/pkg/auth/session"
	"github.com/pyankovzhe/market-backend/pkg/config"
	"github.com/pyankovzhe/market-backend/pkg/db"
	"github.com/pyankovzhe/market-backend/pkg/db/models"
	"github.com/pyankovzhe/market-backend/pkg/enums"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
	"github.com/pyankovzhe/market-backend/pkg/logger"
	"github.com/pyankovzhe/market-backend/pkg/mailer"
	"github.com/pyankovzhe/market-backend/pkg/security"
)

const (
	minPasswordLength = 8
	confirmKeyLength  = 40
	mailSendTimeout   = 15 * time.Second
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionManager interface {
	Create(ctx context.Context, accessID string) error
	Revoke(ctx context.Context, accessID string) error
}

// Service exposes registration, login, and profile operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*users.UserDTO, error)
	ConfirmEmail(ctx context.Context, input ConfirmInput) error
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, accessID string) error
	GetProfile(ctx context.Context, principal pkgauth.Principal) (*users.UserDTO, error)
	UpdateProfile(ctx context.Context, principal pkgauth.Principal, input UpdateProfileInput) (*users.UserDTO, error)
}

type service struct {
	repo     users.Store
	tx       txRunner
	sessions sessionManager
	mail     mailer.Sender
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the identity service.
func NewService(repo users.Store, tx txRunner, sessions sessionManager, mail mailer.Sender, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		sessions: sessions,
		mail:     mail,
		jwtCfg:   jwtCfg,
		pwCfg:    pwCfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Register creates an inactive account and mails a confirmation token.
func (s *service) Register(ctx context.Context, input RegisterInput) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}

	role := enums.UserRoleBuyer
	if input.Role != "" {
		parsed, err := enums.ParseUserRole(input.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or shop")
		}
		role = parsed
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Company:      input.Company,
		Position:     input.Position,
		Role:         role,
		IsActive:     false,
	}

	key, err := security.GenerateTokenKey(confirmKeyLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate confirmation key")
	}

	// Account and confirmation token land together or not at all, so a
	// failed registration can always be retried with the same email.
	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		row, err := txRepo.Create(ctx, user)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if _, err := txRepo.CreateConfirmToken(ctx, &models.ConfirmEmailToken{
			UserID: row.ID,
			Key:    key,
		}); err != nil {
			return fmt.Errorf("create confirmation token: %w", err)
		}
		created = row
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register user")
	}

	s.sendConfirmationMail(created.Email, key)

	return users.ToDTO(created), nil
}

func (s *service) sendConfirmationMail(to, key string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailSendTimeout)
		defer cancel()

		body := fmt.Sprintf("Use this token to confirm your email address: %s", key)
		if err := s.mail.Send(ctx, to, "Confirm your email", body); err != nil && s.logg != nil {
			ctx = s.logg.WithField(ctx, "to", to)
			s.logg.Error(ctx, "mail.confirmation_failed", err)
		}
	}()
}

// ConfirmEmail redeems the token and activates the account.
func (s *service) ConfirmEmail(ctx context.Context, input ConfirmInput) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	key := strings.TrimSpace(input.Key)
	if email == "" || key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and token are required")
	}

	token, err := s.repo.FindConfirmToken(ctx, email, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "confirmation token not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load confirmation token")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if err := txRepo.MarkActive(ctx, token.UserID); err != nil {
			return fmt.Errorf("activate user: %w", err)
		}
		if err := txRepo.DeleteConfirmTokens(ctx, token.UserID); err != nil {
			return fmt.Errorf("delete confirmation token: %w", err)
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm email")
	}
	return nil
}

// Login verifies credentials and issues a bearer token with a live session.
func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	match, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "email address not confirmed")
	}

	accessID := session.NewAccessID()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	if err := s.sessions.Create(ctx, accessID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID, s.now()); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "auth.last_login_update_failed")
	}

	return &LoginResult{Token: token, User: users.ToDTO(user)}, nil
}

// Logout revokes the session tied to the presented token.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// GetProfile returns the caller's account.
func (s *service) GetProfile(ctx context.Context, principal pkgauth.Principal) (*users.UserDTO, error) {
	user, err := s.repo.FindByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return users.ToDTO(user), nil
}

// UpdateProfile applies the provided field updates to the caller's account.
func (s *service) UpdateProfile(ctx context.Context, principal pkgauth.Principal, input UpdateProfileInput) (*users.UserDTO, error) {
	user, err := s.repo.FindByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	if input.FirstName != nil {
		if strings.TrimSpace(*input.FirstName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name cannot be empty")
		}
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		if strings.TrimSpace(*input.LastName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name cannot be empty")
		}
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Company != nil {
		user.Company = input.Company
	}
	if input.Position != nil {
		user.Position = input.Position
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		hash, err := security.HashPassword(*input.Password, s.pwCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		user.PasswordHash = hash
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return users.ToDTO(updated), nil
}
