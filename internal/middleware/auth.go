package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"skylog/api/internal/config"
	"skylog/api/internal/models"
	"skylog/api/internal/session"
)

const (
	ContextUser    = "current_user"
	ContextSession = "current_session"
)

// Auth resolves the session cookie into a user and aborts with 401 when
// it cannot. A store failure is a 500, never a silent guest pass-through.
func Auth(cfg *config.AppConfig, sessions *session.Manager, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(cfg.Security.CookieName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, err := sessions.Validate(c.Request.Context(), cookie)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				ClearSessionCookie(c, cfg)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			log.Error().Err(err).Msg("session validation failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
			return
		}

		if result.User.Status != models.UserStatusActive {
			ClearSessionCookie(c, cfg)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if result.Refreshed {
			SetSessionCookie(c, cfg, result.Session.ID, sessions.TTL())
		}

		c.Set(ContextUser, result.User)
		c.Set(ContextSession, result.Session)

		c.Next()
	}
}

// CurrentUser pulls the authenticated user out of the request context.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(ContextUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

func CurrentSession(c *gin.Context) (models.Session, bool) {
	val, exists := c.Get(ContextSession)
	if !exists {
		return models.Session{}, false
	}
	sess, ok := val.(models.Session)
	return sess, ok
}
