package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service provides the user directory logic behind login, logout and profile lookup.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new auth Service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// CreateOrUpdateUser finds the user by email or creates one. An existing user gets name
// and picture refreshed; the stored refresh token is replaced only when a new one is given.
func (s *Service) CreateOrUpdateUser(ctx context.Context, profile *Profile, refreshToken string) (*User, error) {
	if profile == nil || profile.Email == "" {
		return nil, fmt.Errorf("%w: profile without email", ErrUpstreamAuth)
	}
	if !profile.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	email := normalizeEmail(profile.Email)

	existing, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, directoryError("find user", err)
	}
	if existing != nil {
		return s.updateLogin(ctx, existing.ID, profile, refreshToken)
	}

	now := s.now().UTC()
	newUser := User{
		ID:        uuid.New(),
		Email:     email,
		Name:      profile.Name,
		Picture:   profile.Picture,
		GoogleID:  profile.Subject,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if refreshToken != "" {
		newUser.RefreshToken = stringPtr(refreshToken)
	}

	created, err := s.repo.CreateUser(ctx, newUser)
	if errors.Is(err, ErrDuplicateEmail) {
		// A concurrent first login won the insert.
		existing, err := s.repo.FindUserByEmail(ctx, email)
		if err != nil {
			return nil, directoryError("find user after duplicate", err)
		}
		if existing == nil {
			return nil, directoryError("find user after duplicate", ErrUserNotFound)
		}
		return s.updateLogin(ctx, existing.ID, profile, refreshToken)
	}
	if err != nil {
		return nil, directoryError("create user", err)
	}

	return &created, nil
}

func (s *Service) updateLogin(ctx context.Context, id uuid.UUID, profile *Profile, refreshToken string) (*User, error) {
	var token *string
	if refreshToken != "" {
		token = stringPtr(refreshToken)
	}

	updated, err := s.repo.UpdateUserLogin(ctx, id, profile.Name, profile.Picture, token)
	if err != nil {
		return nil, directoryError("update user login", err)
	}
	return &updated, nil
}

// GetUser returns the user with the given id, or (nil, nil) when there is none.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.FindUserByID(ctx, id)
	if err != nil {
		return nil, directoryError("find user by id", err)
	}
	return user, nil
}

// Logout clears the stored refresh token. Issued session tokens stay valid until they
// expire. Returns ErrUserNotFound when the user no longer exists.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	err := s.repo.ClearRefreshToken(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return directoryError("clear refresh token", err)
	}
	return nil
}

func directoryError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDirectory, op, err)
}
