package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"skylog/api/internal/config"
	"skylog/api/internal/models"
	"skylog/api/internal/ratelimit"
	"skylog/api/internal/repository"
	"skylog/api/internal/security"
	"skylog/api/internal/session"
)

type fakeUserStore struct {
	byID    map[string]models.User
	byEmail map[string]string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	id, ok := s.byEmail[email]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) UpdateStatus(_ context.Context, id string, status models.UserStatus) error {
	user, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Status = status
	s.byID[id] = user
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id string, passwordHash []byte) error {
	user, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	s.byID[id] = user
	return nil
}

type fakeTokenStore struct {
	tokens map[string]models.AuthToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]models.AuthToken)}
}

func (s *fakeTokenStore) Create(_ context.Context, token models.AuthToken) error {
	s.tokens[token.ID] = token
	return nil
}

func (s *fakeTokenStore) FindLive(_ context.Context, userID string, purpose models.TokenPurpose, now time.Time) ([]models.AuthToken, error) {
	var live []models.AuthToken
	for _, token := range s.tokens {
		if token.UserID == userID && token.Purpose == purpose && token.ConsumedAt == nil && token.ExpiresAt.After(now) {
			live = append(live, token)
		}
	}
	return live, nil
}

func (s *fakeTokenStore) Consume(_ context.Context, id string, now time.Time) error {
	token, ok := s.tokens[id]
	if !ok || token.ConsumedAt != nil {
		return repository.ErrTokenNotFound
	}
	token.ConsumedAt = &now
	s.tokens[id] = token
	return nil
}

type fakeSessionStore struct {
	sessions map[string]models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.Session)}
}

func (s *fakeSessionStore) Create(_ context.Context, session models.Session) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessionStore) GetByID(_ context.Context, id string) (models.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeSessionStore) ExtendExpiry(_ context.Context, id string, expiresAt time.Time) error {
	session, ok := s.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.ExpiresAt = expiresAt
	s.sessions[id] = session
	return nil
}

func (s *fakeSessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *fakeSessionStore) DeleteByUser(_ context.Context, userID string) error {
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			SessionTTL:           30 * 24 * time.Hour,
			SessionRefreshWindow: 15 * 24 * time.Hour,
			TokenTTL:             24 * time.Hour,
			LoginRateWindow:      15 * time.Minute,
			LoginRateCeiling:     5,
		},
	}
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserStore, *fakeTokenStore, *fakeSessionStore) {
	t.Helper()

	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	store := newFakeSessionStore()
	cfg := testConfig()

	manager := session.NewManager(store, users,
		cfg.Security.SessionTTL, cfg.Security.SessionRefreshWindow, zerolog.Nop())
	limiter := ratelimit.NewMemoryLimiter(cfg.Security.LoginRateWindow, cfg.Security.LoginRateCeiling)

	svc := NewAuthService(users, tokens, manager, store, limiter, cfg, zerolog.Nop())
	return svc, users, tokens, store
}

func seedActiveUser(t *testing.T, users *fakeUserStore, email, password string) models.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := models.User{
		ID:           "u-" + email,
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusActive,
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestRegisterCreatesPendingUserWithApprovalToken(t *testing.T) {
	svc, users, tokens, _ := newTestAuthService(t)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:       "New.Pilot@Example.com",
		Password:    "long enough password",
		DisplayName: "New Pilot",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.User.Status != models.UserStatusPending {
		t.Errorf("status = %s, want pending", result.User.Status)
	}
	if result.User.Email != "new.pilot@example.com" {
		t.Errorf("email not normalized: %s", result.User.Email)
	}
	if result.ApprovalToken == "" {
		t.Error("no approval token issued")
	}

	stored := users.byID[result.User.ID]
	if string(stored.PasswordHash) == "long enough password" {
		t.Error("password stored in plaintext")
	}

	// Exactly one live approval token, holding a digest, not the secret.
	live, _ := tokens.FindLive(context.Background(), result.User.ID, models.TokenPurposeApproval, time.Now())
	if len(live) != 1 {
		t.Fatalf("live approval tokens = %d, want 1", len(live))
	}
	if string(live[0].Digest) == result.ApprovalToken {
		t.Error("plaintext token persisted")
	}
	if !security.VerifyToken(result.ApprovalToken, live[0].Digest) {
		t.Error("approval token does not verify against stored digest")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)
	seedActiveUser(t, users, "taken@example.com", "password123")

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:       "taken@example.com",
		Password:    "password123",
		DisplayName: "Dup",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register duplicate = %v, want ErrEmailTaken", err)
	}
}

func TestLoginSuccessCreatesSession(t *testing.T) {
	svc, users, _, store := newTestAuthService(t)
	user := seedActiveUser(t, users, "pilot@example.com", "password123")

	result, err := svc.Login(context.Background(), LoginInput{
		Email:     "pilot@example.com",
		Password:  "password123",
		IPAddress: "10.0.0.1",
		UserAgent: "test",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.User.ID != user.ID {
		t.Errorf("user = %s, want %s", result.User.ID, user.ID)
	}
	if _, ok := store.sessions[result.Session.ID]; !ok {
		t.Error("session not persisted")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)
	seedActiveUser(t, users, "pilot@example.com", "password123")

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "pilot@example.com",
		Password: "not the password",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownEmailIndistinguishable(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "ghost@example.com",
		Password: "whatever1",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login unknown email = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginPendingUserRejected(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)
	user := seedActiveUser(t, users, "pending@example.com", "password123")
	user.Status = models.UserStatusPending
	users.byID[user.ID] = user

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "pending@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrUserNotActive) {
		t.Errorf("Login pending user = %v, want ErrUserNotActive", err)
	}
}

func TestLoginRateLimit(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)
	seedActiveUser(t, users, "pilot@example.com", "password123")

	input := LoginInput{
		Email:     "pilot@example.com",
		Password:  "wrong password",
		IPAddress: "10.0.0.1",
	}

	// Four failures, then success on the 5th attempt within the window.
	for i := 0; i < 4; i++ {
		if _, err := svc.Login(context.Background(), input); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d = %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	good := input
	good.Password = "password123"
	if _, err := svc.Login(context.Background(), good); err != nil {
		t.Fatalf("5th attempt with correct credentials failed: %v", err)
	}

	// Success cleared the key: failures start counting from scratch.
	if _, err := svc.Login(context.Background(), input); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("post-success attempt = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginRateLimitCeiling(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)
	seedActiveUser(t, users, "pilot@example.com", "password123")

	input := LoginInput{
		Email:     "pilot@example.com",
		Password:  "wrong password",
		IPAddress: "10.0.0.2",
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.Login(context.Background(), input); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d = %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	// 6th attempt is rejected before credentials are even checked.
	good := input
	good.Password = "password123"
	_, err := svc.Login(context.Background(), good)
	var limited *RateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("6th attempt = %v, want RateLimitedError", err)
	}
	if limited.ResetAt.IsZero() {
		t.Error("RateLimitedError without ResetAt")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, users, _, store := newTestAuthService(t)
	user := seedActiveUser(t, users, "pilot@example.com", "old password1")

	// An existing session that must not survive the reset.
	login, err := svc.Login(context.Background(), LoginInput{
		Email:    "pilot@example.com",
		Password: "old password1",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	userID, token, err := svc.RequestPasswordReset(context.Background(), "pilot@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if userID != user.ID || token == "" {
		t.Fatalf("unexpected reset issue: userID=%q token empty=%v", userID, token == "")
	}

	if err := svc.ResetPassword(context.Background(), userID, token, "new password1"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, ok := store.sessions[login.Session.ID]; ok {
		t.Error("session survived password reset")
	}

	if _, err := svc.Login(context.Background(), LoginInput{
		Email: "pilot@example.com", Password: "old password1", IPAddress: "10.1.1.1",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still works: %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginInput{
		Email: "pilot@example.com", Password: "new password1", IPAddress: "10.1.1.2",
	}); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	// Token was consumed; it cannot reset again.
	if err := svc.ResetPassword(context.Background(), userID, token, "another pass1"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("consumed token reused: %v", err)
	}
}

func TestRequestPasswordResetUnknownEmailQuiet(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	userID, token, err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if userID != "" || token != "" {
		t.Error("unknown email produced a token")
	}
}

func TestApproveUserFlow(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:       "newbie@example.com",
		Password:    "password123",
		DisplayName: "Newbie",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.ApproveUser(context.Background(), result.User.ID, "wrong token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("bogus approval token accepted: %v", err)
	}

	if err := svc.ApproveUser(context.Background(), result.User.ID, result.ApprovalToken); err != nil {
		t.Fatalf("ApproveUser: %v", err)
	}
	if users.byID[result.User.ID].Status != models.UserStatusActive {
		t.Error("user not activated")
	}

	// Single use.
	if err := svc.ApproveUser(context.Background(), result.User.ID, result.ApprovalToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("approval token reused: %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	svc, users, tokens, _ := newTestAuthService(t)
	user := seedActiveUser(t, users, "pilot@example.com", "password123")

	_, token, err := svc.RequestPasswordReset(context.Background(), "pilot@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}

	// Force the stored record past its expiry.
	for id, record := range tokens.tokens {
		record.ExpiresAt = time.Now().Add(-time.Minute)
		tokens.tokens[id] = record
	}

	if err := svc.ResetPassword(context.Background(), user.ID, token, "new password1"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token accepted: %v", err)
	}
}
