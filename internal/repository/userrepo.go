package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/keymart/keymart/internal/model"
)

// UserRepository provides account access.
type UserRepository interface {
	// Create inserts a new user. Returns ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// List returns all users, newest first (admin listing).
	List(ctx context.Context) ([]model.User, error)
	// Count returns the number of accounts (admin dashboard).
	Count(ctx context.Context) (int, error)
}
