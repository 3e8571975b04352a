package middlewares

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"twitchnotify/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Middlewares struct {
	log logger.Logger
}

func New(log logger.Logger) *Middlewares {
	return &Middlewares{log: log}
}

// Auth requires "Authorization: Bearer <expected>". An empty expected token locks the route.
func (m *Middlewares) Auth(expected func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := expected()
		auth := c.GetHeader("Authorization")
		if token == "" || !strings.HasPrefix(auth, "Bearer ") ||
			subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(auth, "Bearer ")), []byte(token)) != 1 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// AdminAuth is basic auth for user "admin" with the token as password.
// An empty token locks the route.
func (m *Middlewares) AdminAuth(expected func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := expected()
		if token == "" {
			c.Header("WWW-Authenticate", `Basic realm="Authorization Required"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		gin.BasicAuth(gin.Accounts{"admin": token})(c)
	}
}

// Logging writes one debug line per request through the app logger.
func (m *Middlewares) Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		m.log.Debug("HTTP request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}
