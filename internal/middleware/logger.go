package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Logger writes one structured line per request. Requests that passed the
// auth middleware carry the acting user's id so activity can be traced to
// a pilot. The health endpoint is skipped to keep probe noise out.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "/api/healthz" {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		status := c.Writer.Status()

		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}

		event = event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Str("request_id", RequestIDFrom(c))

		if query := c.Request.URL.RawQuery; query != "" {
			event = event.Str("query", query)
		}
		if user, ok := CurrentUser(c); ok {
			event = event.Str("user_id", user.ID)
		}

		event.Msg("http request")
	}
}
