package repository

import (
	"context"

	"notes-backend/internal/user/domain"
)

// Repository defines persistence for users. Save is an upsert; the storage
// layer enforces email uniqueness and writes each record in a single
// statement, so the paired OTP fields can never be updated independently.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Save(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}
