// Package server wires the HTTP router: public auth routes, the protected
// note surface, the admin surface, health, and the dev-only OTP lookup.
package server

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	adminhandler "notes-backend/internal/admin/handler"
	authhandler "notes-backend/internal/auth/handler"
	authservice "notes-backend/internal/auth/service"
	"notes-backend/internal/devotp"
	devhandler "notes-backend/internal/devotp/handler"
	"notes-backend/internal/events"
	notehandler "notes-backend/internal/note/handler"
	noterepo "notes-backend/internal/note/repository"
	"notes-backend/internal/platform/rbac"
	"notes-backend/internal/security"
	"notes-backend/internal/server/middleware"
	userdomain "notes-backend/internal/user/domain"
	userrepo "notes-backend/internal/user/repository"
)

// Deps holds the dependencies the router needs.
type Deps struct {
	// Auth is the auth service behind /api/auth.
	Auth *authservice.AuthService
	// Verifier validates Google ID tokens. If nil, /api/auth/google rejects all requests.
	Verifier authhandler.IdentityVerifier
	// Tokens validates session tokens for the protected surface.
	Tokens *security.TokenProvider
	// Users and Notes are the repositories behind the protected routes.
	Users userrepo.Repository
	Notes noterepo.Repository
	// Emitter emits audit events. May be nil.
	Emitter events.Emitter
	// DB is pinged by /health for readiness. May be nil.
	DB *sql.DB
	// DevOTPStore, when non-nil, registers GET /dev/otp. Set only when dev OTP
	// mode is enabled and not production.
	DevOTPStore devotp.Store
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Trace("notes-backend"))

	r.GET("/health", healthHandler(deps.DB))

	authhandler.New(deps.Auth, deps.Verifier, deps.Emitter).Register(r.Group("/api/auth"))

	protected := r.Group("/api", middleware.RequireAuth(deps.Tokens))
	notehandler.New(deps.Notes).Register(protected.Group("/notes"))

	admin := protected.Group("/admin", rbac.RequireRole(userdomain.RoleAdmin))
	adminhandler.New(deps.Users, deps.Notes, deps.Emitter).Register(admin)

	if deps.DevOTPStore != nil {
		devhandler.New(deps.DevOTPStore).Register(r.Group("/dev"))
	}

	return r
}

// healthHandler reports liveness and, when a DB is wired, readiness.
func healthHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
