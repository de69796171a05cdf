package repository

import (
	"context"
	"database/sql"
	"errors"

	"notes-backend/internal/note/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a note repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the note. The note must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, n *domain.Note) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, title, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.UserID, n.Title, n.Description, n.CreatedAt, n.UpdatedAt)
	return err
}

// GetByID returns the note for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, created_at, updated_at
		FROM notes WHERE id = $1`, id)
	var n domain.Note
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Description, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// ListByUser returns the user's notes, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Note, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, created_at, updated_at
		FROM notes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Description, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// ListWithOwners returns every note joined with its owner's name and email, newest first.
func (r *PostgresRepository) ListWithOwners(ctx context.Context) ([]*domain.NoteWithOwner, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT n.id, n.user_id, n.title, n.description, n.created_at, n.updated_at, u.name, u.email
		FROM notes n JOIN users u ON u.id = n.user_id
		ORDER BY n.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*domain.NoteWithOwner
	for rows.Next() {
		var n domain.NoteWithOwner
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Description, &n.CreatedAt, &n.UpdatedAt,
			&n.OwnerName, &n.OwnerEmail); err != nil {
			return nil, err
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// Update rewrites the note's title and description.
func (r *PostgresRepository) Update(ctx context.Context, n *domain.Note) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notes SET title = $2, description = $3, updated_at = $4 WHERE id = $1`,
		n.ID, n.Title, n.Description, n.UpdatedAt)
	return err
}

// Delete removes the note by id. Returns false if no row was deleted.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByIDAndUser removes the note only if it belongs to userID. Returns false if no row was deleted.
func (r *PostgresRepository) DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the total number of notes.
func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&n)
	return n, err
}
