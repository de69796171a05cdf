package domain

import (
	"errors"
	"time"
)

// Note is a personal text note owned by a single user.
type Note struct {
	ID          string
	UserID      string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NoteWithOwner pairs a note with its owner's name and email for admin listings.
type NoteWithOwner struct {
	Note
	OwnerName  string
	OwnerEmail string
}

// Validate validates the note for persistence.
func (n *Note) Validate() error {
	if n.UserID == "" {
		return errors.New("user id is required")
	}
	if n.Title == "" {
		return errors.New("title is required")
	}
	if n.Description == "" {
		return errors.New("description is required")
	}
	return nil
}
