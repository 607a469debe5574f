package repository

import (
	"context"

	"popup-rooms/internal/domain"
)

// UserRepository defines storage and retrieval of user accounts.
type UserRepository interface {
	// FindByID returns ErrUserNotFound when no such user exists.
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindByUsername returns ErrUserNotFound when no such user exists.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByEmail returns ErrUserNotFound when no such user exists.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Save creates the user, or updates it when ID is already set.
	// Returns ErrDuplicateEntry on username/email collisions.
	Save(ctx context.Context, user *domain.User) error
}
