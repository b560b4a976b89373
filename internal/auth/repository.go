package auth

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the user directory. Email is the unique key; lookups return (nil, nil)
// when no user matches.
type Repository interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// CreateUser returns ErrDuplicateEmail when another user already holds the email.
	CreateUser(ctx context.Context, user User) (User, error)

	// UpdateUserLogin refreshes profile data. A nil refreshToken keeps the stored one.
	UpdateUserLogin(ctx context.Context, id uuid.UUID, name, picture string, refreshToken *string) (User, error)

	// ClearRefreshToken returns ErrUserNotFound when the user does not exist.
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
}
