// Package handler exposes the admin surface: list users, list all notes with
// owners, delete any note, and service stats. Routes are mounted behind the
// auth middleware plus the admin role check.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/events"
	notedomain "notes-backend/internal/note/domain"
	noterepo "notes-backend/internal/note/repository"
	userdomain "notes-backend/internal/user/domain"
	userrepo "notes-backend/internal/user/repository"
)

// Handler serves the /api/admin routes.
type Handler struct {
	users   userrepo.Repository
	notes   noterepo.Repository
	emitter events.Emitter
}

// New returns an admin Handler. emitter may be nil.
func New(users userrepo.Repository, notes noterepo.Repository, emitter events.Emitter) *Handler {
	return &Handler{users: users, notes: notes, emitter: emitter}
}

// Register mounts the admin routes on r (mounted under /api/admin).
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/users", h.listUsers)
	r.GET("/notes", h.listNotes)
	r.DELETE("/notes/:id", h.deleteNote)
	r.GET("/stats", h.stats)
}

// userResponse is the admin view of an account. Password and OTP hashes are
// never serialized.
type userResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list users"})
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			ID:         u.ID,
			Email:      u.Email,
			Name:       u.Name,
			Role:       string(u.Role),
			IsVerified: u.IsVerified,
			CreatedAt:  u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

type noteOwner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type noteWithOwnerResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Owner       noteOwner `json:"owner"`
}

func toNoteWithOwner(n *notedomain.NoteWithOwner) noteWithOwnerResponse {
	return noteWithOwnerResponse{
		ID:          n.ID,
		UserID:      n.UserID,
		Title:       n.Title,
		Description: n.Description,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
		Owner:       noteOwner{Name: n.OwnerName, Email: n.OwnerEmail},
	}
}

func (h *Handler) listNotes(c *gin.Context) {
	notes, err := h.notes.ListWithOwners(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list notes"})
		return
	}
	out := make([]noteWithOwnerResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteWithOwner(n))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) deleteNote(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.notes.Delete(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete note"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"message": "note not found"})
		return
	}
	events.EmitAsync(h.emitter, c.Request.Context(), &events.Event{
		Type:      events.TypeNoteDeletedByAdmin,
		NoteID:    id,
		Source:    "admin",
		CreatedAt: time.Now().UTC(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "note deleted by admin"})
}

type statsResponse struct {
	Users  int64 `json:"users"`
	Admins int64 `json:"admins"`
	Notes  int64 `json:"notes"`
}

func (h *Handler) stats(c *gin.Context) {
	ctx := c.Request.Context()
	userCount, err := h.users.CountByRole(ctx, userdomain.RoleUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to compute stats"})
		return
	}
	adminCount, err := h.users.CountByRole(ctx, userdomain.RoleAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to compute stats"})
		return
	}
	noteCount, err := h.notes.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, statsResponse{Users: userCount, Admins: adminCount, Notes: noteCount})
}
