// Package handler exposes note CRUD over HTTP. All routes require an
// authenticated identity; ownership rules are enforced here.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"notes-backend/internal/note/domain"
	"notes-backend/internal/note/repository"
	"notes-backend/internal/server/middleware"
)

// Handler serves the /api/notes routes.
type Handler struct {
	notes repository.Repository
}

// New returns a note Handler backed by the given repository.
func New(notes repository.Repository) *Handler {
	return &Handler{notes: notes}
}

// Register mounts the note routes on r (mounted under /api/notes, behind
// the auth middleware).
func (h *Handler) Register(r gin.IRouter) {
	r.POST("", h.create)
	r.GET("", h.list)
	r.PUT("/:id", h.update)
	r.DELETE("/:id", h.delete)
}

type noteResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toResponse(n *domain.Note) noteResponse {
	return noteResponse{
		ID:          n.ID,
		UserID:      n.UserID,
		Title:       n.Title,
		Description: n.Description,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *Handler) create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid authorization"})
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" || req.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "title and description are required"})
		return
	}

	now := time.Now().UTC()
	note := &domain.Note{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.notes.Create(c.Request.Context(), note); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create note"})
		return
	}
	c.JSON(http.StatusCreated, toResponse(note))
}

func (h *Handler) list(c *gin.Context) {
	userID, ok := middleware.GetUserID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid authorization"})
		return
	}

	notes, err := h.notes.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list notes"})
		return
	}
	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toResponse(n))
	}
	c.JSON(http.StatusOK, out)
}

type updateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// update applies partial changes to an owned note. A note that exists but
// belongs to someone else is a 403, not a 404, matching the read-then-check
// shape of the rest of the surface.
func (h *Handler) update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid authorization"})
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	note, err := h.notes.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to load note"})
		return
	}
	if note == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "note not found"})
		return
	}
	if note.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"message": "you cannot update this note"})
		return
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Description != nil {
		note.Description = *req.Description
	}
	if err := note.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	note.UpdatedAt = time.Now().UTC()
	if err := h.notes.Update(c.Request.Context(), note); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to update note"})
		return
	}
	c.JSON(http.StatusOK, toResponse(note))
}

// delete removes an owned note. The scoped delete never reveals whether a
// foreign note exists: not-yours and not-there share the same 404.
func (h *Handler) delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid authorization"})
		return
	}

	deleted, err := h.notes.DeleteByIDAndUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete note"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"message": "note not found or not authorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted successfully"})
}
