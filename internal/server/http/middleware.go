package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/keymart/keymart/internal/model"
	"github.com/keymart/keymart/internal/service"
)

const principalKey = "principal"

// authRequired extracts and validates the bearer token, attaching the
// principal to the request context.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		const prefix = "Bearer "
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		pr, err := service.ParsePrincipal(strings.TrimPrefix(h, prefix), s.signKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(principalKey, pr)
		c.Next()
	}
}

// adminOnly rejects non-admin principals. Must run after authRequired.
func (s *Server) adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principal(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// principal returns the authenticated caller set by authRequired.
func principal(c *gin.Context) model.Principal {
	v, _ := c.Get(principalKey)
	pr, _ := v.(model.Principal)
	return pr
}

// requestLogger logs request metadata only, never payloads.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("remote", c.ClientIP()),
		)
	}
}
