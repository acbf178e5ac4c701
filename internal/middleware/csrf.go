package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"skylog/api/internal/config"
	"skylog/api/internal/security"
)

// CSRF rejects state-changing requests whose Origin (or Referer) does not
// match the expected host. It runs before any handler, so a failed check
// never reaches side-effecting code. The rejection body is deliberately
// generic; the actual reason is only logged.
//
// Precondition: the Host header (or security.trustedhost) comes from a
// trusted TLS-terminating edge. Without that edge this check is
// bypassable.
func CSRF(cfg *config.AppConfig, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		host := cfg.Security.TrustedHost
		if host == "" {
			host = c.Request.Host
		}

		err := security.CheckOrigin(
			c.Request.Header.Get("Origin"),
			c.Request.Header.Get("Referer"),
			host,
		)
		if err != nil {
			log.Warn().
				Err(err).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("client_ip", c.ClientIP()).
				Msg("cross-origin request rejected")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}
