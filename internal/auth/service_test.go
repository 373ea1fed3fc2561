package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pyankovzhe/market-backend/internal/users"
	pkgauth "github.com/pyankovzhe/market-backend/pkg/auth"
	"github.com/pyankovzhe/market-backend/pkg/config"
	"github.com/pyankovzhe/market-backend/pkg/db/models"
	"github.com/pyankovzhe/market-backend/pkg/enums"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
	"github.com/pyankovzhe/market-backend/pkg/security"
)

type stubTx struct {
	calls int
}

func (s *stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return fn(nil)
}

type stubUserRepo struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
	tokens       map[string]*models.ConfirmEmailToken

	txBinds      int
	createdUser  *models.User
	createErr    error
	tokenErr     error
	activated    []uuid.UUID
	tokensWiped  []uuid.UUID
	createdToken *models.ConfirmEmailToken
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		usersByEmail: map[string]*models.User{},
		usersByID:    map[uuid.UUID]*models.User{},
		tokens:       map[string]*models.ConfirmEmailToken{},
	}
}

func (s *stubUserRepo) addUser(user *models.User) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.usersByEmail[user.Email] = user
	s.usersByID[user.ID] = user
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) users.Store {
	s.txBinds++
	return s
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user.ID = uuid.New()
	s.createdUser = user
	s.addUser(user)
	return user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.usersByID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.usersByEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) Update(ctx context.Context, user *models.User) (*models.User, error) {
	s.addUser(user)
	return user, nil
}

func (s *stubUserRepo) MarkActive(ctx context.Context, id uuid.UUID) error {
	s.activated = append(s.activated, id)
	if user, ok := s.usersByID[id]; ok {
		user.IsActive = true
	}
	return nil
}

func (s *stubUserRepo) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func (s *stubUserRepo) CreateConfirmToken(ctx context.Context, token *models.ConfirmEmailToken) (*models.ConfirmEmailToken, error) {
	if s.tokenErr != nil {
		return nil, s.tokenErr
	}
	s.createdToken = token
	if user, ok := s.usersByID[token.UserID]; ok {
		s.tokens[user.Email+"/"+token.Key] = token
	}
	return token, nil
}

func (s *stubUserRepo) FindConfirmToken(ctx context.Context, email, key string) (*models.ConfirmEmailToken, error) {
	token, ok := s.tokens[email+"/"+key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return token, nil
}

func (s *stubUserRepo) DeleteConfirmTokens(ctx context.Context, userID uuid.UUID) error {
	s.tokensWiped = append(s.tokensWiped, userID)
	return nil
}

type stubSessions struct {
	created []string
	revoked []string
}

func (s *stubSessions) Create(ctx context.Context, accessID string) error {
	s.created = append(s.created, accessID)
	return nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

type recordingMailer struct {
	sent chan string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{sent: make(chan string, 4)}
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.sent <- body
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "market-backend",
		ExpirationMinutes: 60,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func newAuthService(t *testing.T, repo *stubUserRepo, sessions *stubSessions, mail *recordingMailer) Service {
	t.Helper()
	if sessions == nil {
		sessions = &stubSessions{}
	}
	if mail == nil {
		mail = newRecordingMailer()
	}
	svc, err := NewService(repo, &stubTx{}, sessions, mail, testJWTConfig(), testPasswordConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error building service: %v", err)
	}
	return svc
}

func TestRegisterRejectsInvalidEmail(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), nil, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "not-an-email",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err == nil {
		t.Fatal("expected error for invalid email")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), nil, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "ada@example.com",
		Password:  "short",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err == nil {
		t.Fatal("expected error for short password")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterCreatesInactiveUserAndSendsToken(t *testing.T) {
	repo := newStubUserRepo()
	mail := newRecordingMailer()
	svc := newAuthService(t, repo, nil, mail)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:     "Ada@Example.com",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      "shop",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.IsActive {
		t.Fatal("expected new account to be inactive")
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Role != enums.UserRoleShop {
		t.Fatalf("expected shop role, got %s", user.Role)
	}
	if repo.createdToken == nil || repo.createdToken.Key == "" {
		t.Fatal("expected confirmation token to be stored")
	}

	select {
	case body := <-mail.sent:
		if !strings.Contains(body, repo.createdToken.Key) {
			t.Fatalf("expected mail to carry the token, got %q", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected confirmation mail to be sent")
	}
}

func TestRegisterWritesUserAndTokenTogether(t *testing.T) {
	repo := newStubUserRepo()
	tx := &stubTx{}
	svc, err := NewService(repo, tx, &stubSessions{}, newRecordingMailer(), testJWTConfig(), testPasswordConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error building service: %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterInput{
		Email:     "ada@example.com",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.calls != 1 {
		t.Fatalf("expected one transaction, got %d", tx.calls)
	}
	if repo.txBinds != 1 {
		t.Fatalf("expected repository bound to the transaction once, got %d", repo.txBinds)
	}
	if repo.createdUser == nil || repo.createdToken == nil {
		t.Fatal("expected user and token written inside the transaction")
	}
}

func TestRegisterTokenWriteFailureIsDependencyError(t *testing.T) {
	repo := newStubUserRepo()
	repo.tokenErr = fmt.Errorf("insert failed")
	mail := newRecordingMailer()
	svc := newAuthService(t, repo, nil, mail)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "ada@example.com",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err == nil {
		t.Fatal("expected error when token write fails")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}

	select {
	case body := <-mail.sent:
		t.Fatalf("expected no confirmation mail, got %q", body)
	default:
	}
}

func TestConfirmEmailActivatesAccount(t *testing.T) {
	repo := newStubUserRepo()
	user := &models.User{Email: "ada@example.com"}
	repo.addUser(user)
	repo.tokens["ada@example.com/tok123"] = &models.ConfirmEmailToken{UserID: user.ID, Key: "tok123"}

	svc := newAuthService(t, repo, nil, nil)

	if err := svc.ConfirmEmail(context.Background(), ConfirmInput{Email: "ada@example.com", Key: "tok123"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.activated) != 1 || repo.activated[0] != user.ID {
		t.Fatalf("expected user activated, got %+v", repo.activated)
	}
	if len(repo.tokensWiped) != 1 {
		t.Fatal("expected confirmation token removed")
	}
}

func TestConfirmEmailUnknownTokenIsNotFound(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), nil, nil)

	err := svc.ConfirmEmail(context.Background(), ConfirmInput{Email: "ada@example.com", Key: "nope"})
	if err == nil {
		t.Fatal("expected error for unknown token")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func addActiveUser(t *testing.T, repo *stubUserRepo, email, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleBuyer,
		IsActive:     true,
	}
	repo.addUser(user)
	return user
}

func TestLoginWrongPasswordIsUnauthorized(t *testing.T) {
	repo := newStubUserRepo()
	addActiveUser(t, repo, "ada@example.com", "correct-horse")
	svc := newAuthService(t, repo, nil, nil)

	_, err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "wrong"})
	if err == nil {
		t.Fatal("expected error for wrong password")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginInactiveAccountIsForbidden(t *testing.T) {
	repo := newStubUserRepo()
	user := addActiveUser(t, repo, "ada@example.com", "correct-horse")
	user.IsActive = false
	svc := newAuthService(t, repo, nil, nil)

	_, err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "correct-horse"})
	if err == nil {
		t.Fatal("expected error for inactive account")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestLoginIssuesTokenAndSession(t *testing.T) {
	repo := newStubUserRepo()
	user := addActiveUser(t, repo, "ada@example.com", "correct-horse")
	sessions := &stubSessions{}
	svc := newAuthService(t, repo, sessions, nil)

	result, err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a bearer token")
	}
	if result.User.ID != user.ID {
		t.Fatalf("expected logged-in user, got %+v", result.User)
	}
	if len(sessions.created) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions.created))
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Token)
	if err != nil {
		t.Fatalf("parsing issued token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected claims for user, got %s", claims.UserID)
	}
	if claims.ID != sessions.created[0] {
		t.Fatal("expected token jti to match the stored session")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &stubSessions{}
	svc := newAuthService(t, newStubUserRepo(), sessions, nil)

	if err := svc.Logout(context.Background(), "access-id"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-id" {
		t.Fatalf("expected session revoked, got %+v", sessions.revoked)
	}
}

func TestUpdateProfileChangesPassword(t *testing.T) {
	repo := newStubUserRepo()
	user := addActiveUser(t, repo, "ada@example.com", "correct-horse")
	svc := newAuthService(t, repo, nil, nil)

	newPassword := "battery-staple"
	_, err := svc.UpdateProfile(context.Background(), pkgauth.Principal{ID: user.ID, Role: user.Role}, UpdateProfileInput{
		Password: &newPassword,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	match, err := security.VerifyPassword(newPassword, user.PasswordHash)
	if err != nil {
		t.Fatalf("verifying new password: %v", err)
	}
	if !match {
		t.Fatal("expected stored hash to match the new password")
	}
}
