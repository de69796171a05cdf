// Package rbac enforces role requirements on authenticated requests. No path
// through this package (or anywhere else in the service) lets a caller change
// a role; admin is only ever written by the seed command.
package rbac

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/server/middleware"
	userdomain "notes-backend/internal/user/domain"
)

var (
	// ErrUnauthenticated is returned when no identity was stamped on the context.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller's role does not satisfy the requirement.
	ErrForbidden = errors.New("insufficient role")
)

// Check ensures the context carries an authenticated identity with the
// required role. Authentication is always decided before authorization: a
// request without identity gets ErrUnauthenticated, never ErrForbidden.
func Check(ctx context.Context, required userdomain.Role) error {
	userID, okUser := middleware.GetUserID(ctx)
	role, okRole := middleware.GetRole(ctx)
	if !okUser || userID == "" || !okRole || role == "" {
		return ErrUnauthenticated
	}
	if userdomain.Role(role) != required {
		return ErrForbidden
	}
	return nil
}

// RequireRole returns middleware that enforces the given role on an already
// authenticated request. Register it after middleware.RequireAuth; it never
// admits a request RequireAuth has not stamped.
func RequireRole(required userdomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := Check(c.Request.Context(), required); err != nil {
			if errors.Is(err, ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid authorization"})
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "admin access required"})
			return
		}
		c.Next()
	}
}
