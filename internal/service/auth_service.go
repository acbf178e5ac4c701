package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"skylog/api/internal/config"
	"skylog/api/internal/ids"
	"skylog/api/internal/models"
	"skylog/api/internal/ratelimit"
	"skylog/api/internal/repository"
	"skylog/api/internal/security"
	"skylog/api/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotActive      = errors.New("user not active")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// RateLimitedError carries the window reset so handlers can surface a
// human-readable retry estimate without revealing anything about the
// limited account.
type RateLimitedError struct {
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	return "too many attempts"
}

// UserStore is the slice of the user repository the auth flows need.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
}

type TokenStore interface {
	Create(ctx context.Context, token models.AuthToken) error
	FindLive(ctx context.Context, userID string, purpose models.TokenPurpose, now time.Time) ([]models.AuthToken, error)
	Consume(ctx context.Context, id string, now time.Time) error
}

// SessionRevoker wipes every session a user owns, used after a password
// reset and when an account is disabled.
type SessionRevoker interface {
	DeleteByUser(ctx context.Context, userID string) error
}

type AuthService struct {
	users    UserStore
	tokens   TokenStore
	sessions *session.Manager
	revoker  SessionRevoker
	limiter  ratelimit.Limiter
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	users UserStore,
	tokens TokenStore,
	sessions *session.Manager,
	revoker SessionRevoker,
	limiter ratelimit.Limiter,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		revoker:  revoker,
		limiter:  limiter,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// RegisterResult carries the plaintext approval token alongside the new
// (pending) user. Delivery of the token is the mailer's concern; this
// service never stores the plaintext.
type RegisterResult struct {
	User          models.User
	ApprovalToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" || input.Password == "" {
		return RegisterResult{}, fmt.Errorf("email and password required")
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return RegisterResult{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return RegisterResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return RegisterResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		DisplayName:  input.DisplayName,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return RegisterResult{}, err
	}

	approvalToken, err := s.issueToken(ctx, user.ID, models.TokenPurposeApproval)
	if err != nil {
		return RegisterResult{}, err
	}

	return RegisterResult{User: user, ApprovalToken: approvalToken}, nil
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

type LoginResult struct {
	Session models.Session
	User    models.User
}

// Login authenticates credentials behind the rate limiter. The limit key
// combines client IP and the attempted email so one address hammering one
// account is contained without locking the account globally. A successful
// login clears the key.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	key := input.IPAddress + "|" + input.Email

	decision, err := s.limiter.Consume(ctx, key)
	if err != nil {
		return LoginResult{}, fmt.Errorf("rate limit: %w", err)
	}
	if !decision.Allowed {
		return LoginResult{}, &RateLimitedError{ResetAt: decision.ResetAt}
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.Status != models.UserStatusActive {
		return LoginResult{}, ErrUserNotActive
	}

	sess, err := s.sessions.Create(ctx, user.ID, input.IPAddress, input.UserAgent)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("reset rate limit after login")
	}

	return LoginResult{Session: sess, User: user}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Invalidate(ctx, sessionID)
}

// RequestPasswordReset issues a reset token for the account, if one
// exists. The empty-result path for unknown emails is indistinguishable
// to the caller so the endpoint cannot be used to probe accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (userID string, token string, err error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", "", nil
		}
		return "", "", err
	}

	token, err = s.issueToken(ctx, user.ID, models.TokenPurposeReset)
	if err != nil {
		return "", "", err
	}
	return user.ID, token, nil
}

// ResetPassword consumes a live reset token and replaces the password.
// Every session the user holds is revoked afterwards.
func (s *AuthService) ResetPassword(ctx context.Context, userID string, token string, newPassword string) error {
	if _, err := s.consumeToken(ctx, userID, models.TokenPurposeReset, token); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return err
	}

	if err := s.revoker.DeleteByUser(ctx, userID); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("revoke sessions after reset")
		return err
	}
	return nil
}

// ApproveUser consumes an approval token and activates the account.
func (s *AuthService) ApproveUser(ctx context.Context, userID string, token string) error {
	if _, err := s.consumeToken(ctx, userID, models.TokenPurposeApproval, token); err != nil {
		return err
	}
	return s.users.UpdateStatus(ctx, userID, models.UserStatusActive)
}

func (s *AuthService) issueToken(ctx context.Context, userID string, purpose models.TokenPurpose) (string, error) {
	plaintext, digest, err := security.GenerateToken(32)
	if err != nil {
		return "", err
	}

	record := models.AuthToken{
		ID:        ids.New(),
		UserID:    userID,
		Purpose:   purpose,
		Digest:    digest,
		ExpiresAt: time.Now().Add(s.cfg.Security.TokenTTL),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return "", err
	}
	return plaintext, nil
}

func (s *AuthService) consumeToken(ctx context.Context, userID string, purpose models.TokenPurpose, candidate string) (models.AuthToken, error) {
	now := time.Now()
	live, err := s.tokens.FindLive(ctx, userID, purpose, now)
	if err != nil {
		return models.AuthToken{}, err
	}

	for _, record := range live {
		if security.VerifyToken(candidate, record.Digest) {
			if err := s.tokens.Consume(ctx, record.ID, now); err != nil {
				if errors.Is(err, repository.ErrTokenNotFound) {
					// Lost the race to another consume.
					return models.AuthToken{}, ErrInvalidToken
				}
				return models.AuthToken{}, err
			}
			return record, nil
		}
	}
	return models.AuthToken{}, ErrInvalidToken
}
