// Package middleware holds the HTTP authorization gate: bearer-token
// authentication and role checks applied in front of protected routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/security"
)

const bearerPrefix = "bearer "

// RequireAuth returns middleware that validates the Bearer (session) token
// from the Authorization header and sets user_id and role in the request
// context. Missing, malformed, expired, and badly signed tokens are all
// rejected with the same 401.
func RequireAuth(tokens *security.TokenProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid authorization"})
			return
		}

		userID, role, err := tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid authorization"})
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), userID, role))
		c.Next()
	}
}

// extractBearer returns the Bearer token from the header value, or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
