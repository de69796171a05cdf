// Package handler implements the dev-only OTP lookup route (GET /dev/otp).
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/devotp"
)

const devOTPNote = "DEV MODE ONLY"

// Handler serves dev OTP lookups. Only registered when dev OTP mode is
// enabled and the environment is not production.
type Handler struct {
	store devotp.Store
}

// New returns a dev OTP Handler backed by the given store.
func New(store devotp.Store) *Handler {
	return &Handler{store: store}
}

// Register mounts GET /otp on r (mounted under /dev).
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/otp", h.getOTP)
}

// getOTP returns the plain OTP last issued for ?email=. 404 when missing or expired.
func (h *Handler) getOTP(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email is required"})
		return
	}
	otp, ok := h.store.Get(c.Request.Context(), email)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "OTP not found or expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"otp": otp, "note": devOTPNote})
}
