package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"skylog/api/internal/config"
	"skylog/api/internal/models"
	"skylog/api/internal/repository"
	"skylog/api/internal/session"
)

type stubSessionStore struct {
	sessions map[string]models.Session
}

func (s *stubSessionStore) Create(_ context.Context, sess models.Session) error {
	s.sessions[sess.ID] = sess
	return nil
}

func (s *stubSessionStore) GetByID(_ context.Context, id string) (models.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return sess, nil
}

func (s *stubSessionStore) ExtendExpiry(_ context.Context, id string, expiresAt time.Time) error {
	sess := s.sessions[id]
	sess.ExpiresAt = expiresAt
	s.sessions[id] = sess
	return nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type stubUserSource struct {
	users map[string]models.User
}

func (s *stubUserSource) GetByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func newAuthRouter(t *testing.T, store *stubSessionStore, users *stubUserSource) (*gin.Engine, *config.AppConfig) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{}
	cfg.Security.CookieName = "skylog_session"
	cfg.Security.SessionTTL = 30 * 24 * time.Hour
	cfg.Security.SessionRefreshWindow = 15 * 24 * time.Hour

	manager := session.NewManager(store, users,
		cfg.Security.SessionTTL, cfg.Security.SessionRefreshWindow, zerolog.Nop())

	r := gin.New()
	r.GET("/me", Auth(cfg, manager, zerolog.Nop()), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})
	return r, cfg
}

func clearedCookie(resp *http.Response, name string) bool {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name && cookie.Value == "" && cookie.MaxAge < 0 {
			return true
		}
	}
	return false
}

func TestAuthActiveUserPasses(t *testing.T) {
	store := &stubSessionStore{sessions: map[string]models.Session{
		"sess-1": {ID: "sess-1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	users := &stubUserSource{users: map[string]models.User{
		"u1": {ID: "u1", Status: models.UserStatusActive},
	}}
	router, cfg := newAuthRouter(t, store, users)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: cfg.Security.CookieName, Value: "sess-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
}

func TestAuthMissingCookie(t *testing.T) {
	store := &stubSessionStore{sessions: map[string]models.Session{}}
	users := &stubUserSource{users: map[string]models.User{}}
	router, _ := newAuthRouter(t, store, users)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthUnknownSessionClearsCookie(t *testing.T) {
	store := &stubSessionStore{sessions: map[string]models.Session{}}
	users := &stubUserSource{users: map[string]models.User{}}
	router, cfg := newAuthRouter(t, store, users)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: cfg.Security.CookieName, Value: "gone"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if !clearedCookie(w.Result(), cfg.Security.CookieName) {
		t.Error("stale cookie not cleared")
	}
}

func TestAuthInactiveUserClearsCookie(t *testing.T) {
	for _, status := range []models.UserStatus{models.UserStatusPending, models.UserStatusDisabled} {
		t.Run(string(status), func(t *testing.T) {
			store := &stubSessionStore{sessions: map[string]models.Session{
				"sess-1": {ID: "sess-1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)},
			}}
			users := &stubUserSource{users: map[string]models.User{
				"u1": {ID: "u1", Status: status},
			}}
			router, cfg := newAuthRouter(t, store, users)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.AddCookie(&http.Cookie{Name: cfg.Security.CookieName, Value: "sess-1"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
			// The browser must not keep presenting a cookie that can
			// never authorize again.
			if !clearedCookie(w.Result(), cfg.Security.CookieName) {
				t.Error("session cookie left in place for inactive user")
			}
		})
	}
}
