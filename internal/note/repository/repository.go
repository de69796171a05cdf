package repository

import (
	"context"

	"notes-backend/internal/note/domain"
)

// Repository defines persistence for notes.
type Repository interface {
	Create(ctx context.Context, n *domain.Note) error
	GetByID(ctx context.Context, id string) (*domain.Note, error)
	// ListByUser returns the user's notes, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Note, error)
	// ListWithOwners returns every note joined with its owner, newest first. Admin use.
	ListWithOwners(ctx context.Context) ([]*domain.NoteWithOwner, error)
	Update(ctx context.Context, n *domain.Note) error
	// Delete removes the note by id. Returns false if no row was deleted.
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteByIDAndUser removes the note only if it belongs to userID. Returns false if no row was deleted.
	DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error)
	Count(ctx context.Context) (int64, error)
}
