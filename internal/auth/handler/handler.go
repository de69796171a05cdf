// Package handler exposes the passwordless auth flows over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/auth/provider/google"
	"notes-backend/internal/auth/service"
	"notes-backend/internal/events"
)

// IdentityVerifier validates a federated provider's raw credential and
// returns the asserted identity. The Google provider implements this.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, rawToken string) (*google.Identity, error)
}

// Handler serves the /api/auth routes.
type Handler struct {
	auth     *service.AuthService
	verifier IdentityVerifier
	emitter  events.Emitter
}

// New returns an auth Handler. verifier may be nil when federated sign-in is
// not configured; emitter may be nil when events are disabled.
func New(auth *service.AuthService, verifier IdentityVerifier, emitter events.Emitter) *Handler {
	return &Handler{auth: auth, verifier: verifier, emitter: emitter}
}

// Register mounts the auth routes on r (mounted under /api/auth).
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/request-otp", h.requestOTP)
	r.POST("/verify-registration", h.verifyRegistration)
	r.POST("/send-login-otp", h.sendLoginOTP)
	r.POST("/login", h.login)
	r.POST("/google", h.google)
}

type requestOTPRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) requestOTP(c *gin.Context) {
	var req requestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name and email are required"})
		return
	}
	if err := h.auth.RequestOTP(c.Request.Context(), req.Email, req.Name); err != nil {
		h.writeAuthError(c, err)
		return
	}
	events.EmitAsync(h.emitter, c.Request.Context(), &events.Event{
		Type:      events.TypeOTPRequested,
		Email:     req.Email,
		Source:    "auth",
		CreatedAt: nowUTC(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to email, proceed to verification"})
}

type verifyRegistrationRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	OTP   string `json:"otp"`
}

func (h *Handler) verifyRegistration(c *gin.Context) {
	var req verifyRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email, name, and OTP are required"})
		return
	}
	session, err := h.auth.VerifyRegistration(c.Request.Context(), req.Email, req.Name, req.OTP)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}
	events.EmitAsync(h.emitter, c.Request.Context(), &events.Event{
		Type:      events.TypeRegistrationDone,
		UserID:    session.UserID,
		Email:     session.Email,
		Source:    "auth",
		CreatedAt: nowUTC(),
	})
	c.JSON(http.StatusCreated, sessionResponse("email verified and user registered successfully", session))
}

type sendLoginOTPRequest struct {
	Email string `json:"email"`
}

func (h *Handler) sendLoginOTP(c *gin.Context) {
	var req sendLoginOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email is required"})
		return
	}
	if err := h.auth.RequestLoginOTP(c.Request.Context(), req.Email); err != nil {
		h.writeAuthError(c, err)
		return
	}
	events.EmitAsync(h.emitter, c.Request.Context(), &events.Event{
		Type:      events.TypeLoginOTPRequested,
		Email:     req.Email,
		Source:    "auth",
		CreatedAt: nowUTC(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "login OTP sent to email"})
}

type loginRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email and OTP are required"})
		return
	}
	session, err := h.auth.VerifyLogin(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}
	events.EmitAsync(h.emitter, c.Request.Context(), &events.Event{
		Type:      events.TypeLoginSucceeded,
		UserID:    session.UserID,
		Email:     session.Email,
		Source:    "auth",
		CreatedAt: nowUTC(),
	})
	c.JSON(http.StatusOK, sessionResponse("login successful", session))
}

type googleRequest struct {
	IDToken string `json:"idToken"`
}

// google exchanges a Google ID token for a local session. The token is
// verified server side against Google's JWKS; the client-supplied payload is
// never trusted for identity fields.
func (h *Handler) google(c *gin.Context) {
	var req googleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IDToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "idToken is required"})
		return
	}
	if h.verifier == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Google sign-in is not configured"})
		return
	}
	identity, err := h.verifier.VerifyIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid Google credential"})
		return
	}
	session, err := h.auth.SignInFederated(c.Request.Context(), identity.Subject, identity.Email, identity.Name)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}
	events.EmitAsync(h.emitter, c.Request.Context(), &events.Event{
		Type:      events.TypeFederatedLogin,
		UserID:    session.UserID,
		Email:     session.Email,
		Source:    "auth",
		CreatedAt: nowUTC(),
	})
	c.JSON(http.StatusOK, sessionResponse("Google login successful", session))
}

func nowUTC() time.Time { return time.Now().UTC() }

// sessionResponse is the shape returned by every flow that mints a token.
func sessionResponse(message string, s *service.Session) gin.H {
	return gin.H{
		"message": message,
		"token":   s.Token,
		"user": gin.H{
			"id":    s.UserID,
			"name":  s.Name,
			"email": s.Email,
			"role":  s.Role,
		},
	}
}

// writeAuthError maps service sentinels to HTTP responses. All OTP check
// failures share one message so a caller cannot tell an expired code from one
// that was never issued.
func (h *Handler) writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"message": "account not found or not verified"})
	case errors.Is(err, service.ErrNoPendingOTP),
		errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrNotVerified):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid or expired OTP, request a new one"})
	case errors.Is(err, service.ErrDelivery):
		c.JSON(http.StatusBadGateway, gin.H{"message": "failed to send OTP email"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
