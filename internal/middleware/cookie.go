package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"skylog/api/internal/config"
)

// Session cookie attributes are fixed: HttpOnly, SameSite=Lax, Secure.
// Secure can only be dropped through the explicit cookieinsecure config
// opt-out for a pre-TLS bootstrap window; the default is always Secure.

func SetSessionCookie(c *gin.Context, cfg *config.AppConfig, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		cfg.Security.CookieName,
		value,
		int(ttl/time.Second),
		"/",
		"",
		!cfg.Security.CookieInsecure,
		true,
	)
}

func ClearSessionCookie(c *gin.Context, cfg *config.AppConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		cfg.Security.CookieName,
		"",
		-1,
		"/",
		"",
		!cfg.Security.CookieInsecure,
		true,
	)
}
