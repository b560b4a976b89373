package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is a Repository for local development and tests. The email index
// is guarded by the same lock as the rows, so CreateUser enforces uniqueness atomically.
type InMemoryRepository struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]User
	byEmail map[string]uuid.UUID
}

// NewInMemoryRepository creates an empty InMemoryRepository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:   make(map[uuid.UUID]User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *InMemoryRepository) FindUserByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	user := cloneUser(r.users[id])
	return &user, nil
}

func (r *InMemoryRepository) FindUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	user = cloneUser(user)
	return &user, nil
}

func (r *InMemoryRepository) CreateUser(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return User{}, ErrDuplicateEmail
	}
	stored := cloneUser(user)
	r.users[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	return cloneUser(stored), nil
}

func (r *InMemoryRepository) UpdateUserLogin(_ context.Context, id uuid.UUID, name, picture string, refreshToken *string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	user.Name = name
	user.Picture = picture
	if refreshToken != nil {
		user.RefreshToken = stringPtr(*refreshToken)
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return cloneUser(user), nil
}

func (r *InMemoryRepository) ClearRefreshToken(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.RefreshToken = nil
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

// Count returns the number of stored users.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func cloneUser(u User) User {
	if u.RefreshToken != nil {
		u.RefreshToken = stringPtr(*u.RefreshToken)
	}
	return u
}

func stringPtr(s string) *string {
	return &s
}
