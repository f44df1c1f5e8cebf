// Package middleware holds the Gin middleware chain: JWT auth, request
// idempotence, and structured request logging, adapted from the donor's
// internal/middleware package.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/restaurant-bff/core/internal/domain"
	jwtpkg "github.com/restaurant-bff/core/internal/pkg/jwt"
)

const identityContextKey = "sessionIdentity"

// Auth requires a valid Bearer JWT and stores the resulting
// SessionIdentity in the gin context. Only the JWT's sessionId is ever
// trusted — a client-supplied sessionId is never honored.
func Auth(verifier *jwtpkg.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "missing bearer token"})
			return
		}

		identity, err := verifier.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"})
			return
		}

		c.Set(identityContextKey, identity)
		c.Next()
	}
}

// CurrentIdentity fetches the authenticated SessionIdentity set by Auth.
func CurrentIdentity(c *gin.Context) (*domain.SessionIdentity, bool) {
	v, ok := c.Get(identityContextKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*domain.SessionIdentity)
	return identity, ok
}

func extractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	return header
}
