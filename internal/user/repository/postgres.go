package repository

import (
	"context"
	"database/sql"
	"errors"

	"notes-backend/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, name, password_hash, role, is_verified, otp_code_hash, otp_expires_at, google_id, created_at, updated_at`

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// Save upserts the user in a single statement. The user must have ID set; it
// is not assigned by this method. The unique index on email rejects a second
// account with the same address.
func (r *PostgresRepository) Save(ctx context.Context, u *domain.User) error {
	passwordHash := sql.NullString{String: u.PasswordHash, Valid: u.PasswordHash != ""}
	otpHash := sql.NullString{String: u.OTPCodeHash, Valid: u.OTPCodeHash != ""}
	var otpExpires sql.NullTime
	if u.OTPExpiresAt != nil {
		otpExpires = sql.NullTime{Time: *u.OTPExpiresAt, Valid: true}
	}
	googleID := sql.NullString{String: u.GoogleID, Valid: u.GoogleID != ""}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, is_verified, otp_code_hash, otp_expires_at, google_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			is_verified = EXCLUDED.is_verified,
			otp_code_hash = EXCLUDED.otp_code_hash,
			otp_expires_at = EXCLUDED.otp_expires_at,
			google_id = EXCLUDED.google_id,
			updated_at = EXCLUDED.updated_at`,
		u.ID, u.Email, u.Name, passwordHash, string(u.Role), u.IsVerified,
		otpHash, otpExpires, googleID, u.CreatedAt, u.UpdatedAt)
	return err
}

// Delete removes the user by id. Missing rows are not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// List returns all users ordered by creation time, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountByRole returns the number of users with the given role.
func (r *PostgresRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, string(role)).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u            domain.User
		role         string
		passwordHash sql.NullString
		otpHash      sql.NullString
		otpExpires   sql.NullTime
		googleID     sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &passwordHash, &role, &u.IsVerified,
		&otpHash, &otpExpires, &googleID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	u.PasswordHash = passwordHash.String
	u.OTPCodeHash = otpHash.String
	if otpExpires.Valid {
		t := otpExpires.Time.UTC()
		u.OTPExpiresAt = &t
	}
	u.GoogleID = googleID.String
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}
