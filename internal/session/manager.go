package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"skylog/api/internal/models"
	"skylog/api/internal/repository"
)

// ErrNoSession means the identifier resolved to nothing usable: unknown,
// expired, or owned by a missing user. Store failures are returned as-is
// and must never be collapsed into ErrNoSession by callers.
var ErrNoSession = errors.New("no valid session")

// Store is the persistence surface the manager needs. Implemented by
// repository.SessionRepository.
type Store interface {
	Create(ctx context.Context, session models.Session) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// UserSource resolves session owners. Implemented by
// repository.UserRepository. GetByID reports unknown users with
// repository.ErrUserNotFound, and Store.GetByID unknown sessions with
// repository.ErrSessionNotFound; anything else is a store failure.
type UserSource interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

type Manager struct {
	store         Store
	users         UserSource
	ttl           time.Duration
	refreshWindow time.Duration
	log           zerolog.Logger
	now           func() time.Time
}

func NewManager(store Store, users UserSource, ttl, refreshWindow time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		store:         store,
		users:         users,
		ttl:           ttl,
		refreshWindow: refreshWindow,
		log:           log,
		now:           time.Now,
	}
}

// Result is what Validate hands back for a live session. Refreshed set
// means the expiry was extended and the caller must rewrite the cookie.
type Result struct {
	Session   models.Session
	User      models.User
	Refreshed bool
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (m *Manager) Create(ctx context.Context, userID string, ip string, userAgent string) (models.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return models.Session{}, err
	}

	now := m.now()
	session := models.Session{
		ID:        id,
		UserID:    userID,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, session); err != nil {
		return models.Session{}, fmt.Errorf("persist session: %w", err)
	}
	return session, nil
}

// Validate resolves a cookie value into a live session and its user.
// Expired or unknown ids yield ErrNoSession. When the remaining lifetime
// drops inside the refresh window the expiry is slid forward; that write
// is best-effort, the authorization decision does not depend on it.
func (m *Manager) Validate(ctx context.Context, id string) (Result, error) {
	if id == "" {
		return Result{}, ErrNoSession
	}

	session, err := m.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return Result{}, ErrNoSession
		}
		return Result{}, fmt.Errorf("load session: %w", err)
	}

	now := m.now()
	if !now.Before(session.ExpiresAt) {
		// Terminal. Remove the row so the id can never resurrect.
		if err := m.store.Delete(ctx, id); err != nil {
			m.log.Warn().Err(err).Msg("delete expired session")
		}
		return Result{}, ErrNoSession
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Result{}, ErrNoSession
		}
		return Result{}, fmt.Errorf("load session user: %w", err)
	}

	refreshed := false
	if session.ExpiresAt.Sub(now) < m.refreshWindow {
		extended := now.Add(m.ttl)
		if err := m.store.ExtendExpiry(ctx, id, extended); err != nil {
			m.log.Warn().Err(err).Msg("extend session expiry")
		} else {
			session.ExpiresAt = extended
			refreshed = true
		}
	}

	return Result{Session: session, User: user, Refreshed: refreshed}, nil
}

// Invalidate deletes the session. Idempotent: invalidating an id that is
// already gone is not an error.
func (m *Manager) Invalidate(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// TTL reports the configured session lifetime, used for cookie max-age.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
