package account

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]User
}

// NewInMemoryRepository creates a new in-memory user repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID: 1,
		users:  make(map[int64]User),
	}
}

// Create creates a new user
func (r *InMemoryRepository) Create(ctx context.Context, params CreateUserParams) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == params.Username {
			return nil, ErrUsernameTaken
		}
		if u.Email == params.Email {
			return nil, ErrEmailTaken
		}
	}

	user := User{
		ID:           r.nextID,
		Username:     params.Username,
		Email:        params.Email,
		DisplayName:  params.DisplayName,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.nextID++
	r.users[user.ID] = user

	result := user
	return &result, nil
}

// GetByID gets a live user by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, ErrUserNotFound
	}

	result := user
	return &result, nil
}

// GetByIDIncludingDeleted gets a user by ID, bypassing the live-only exclusion
func (r *InMemoryRepository) GetByIDIncludingDeleted(ctx context.Context, id int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	result := user
	return &result, nil
}

// GetByUsername gets a live user by normalized username
func (r *InMemoryRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username && user.DeletedAt == nil {
			result := user
			return &result, nil
		}
	}
	return nil, ErrUserNotFound
}

// GetByEmail gets a live user by email
func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email && user.DeletedAt == nil {
			result := user
			return &result, nil
		}
	}
	return nil, ErrUserNotFound
}

// UsernameExists checks whether a username exists, including deleted accounts
func (r *InMemoryRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// SetVerified marks the user as verified
func (r *InMemoryRepository) SetVerified(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.IsVerified = true
	r.users[id] = user
	return nil
}

// MarkDeleted sets the logical deletion marker
func (r *InMemoryRepository) MarkDeleted(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	now := time.Now().UTC()
	user.DeletedAt = &now
	r.users[id] = user
	return nil
}

// ClearDeleted clears the logical deletion marker
func (r *InMemoryRepository) ClearDeleted(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.DeletedAt = nil
	r.users[id] = user
	return nil
}

// UpdatePasswordHash replaces the stored password hash
func (r *InMemoryRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	r.users[id] = user
	return nil
}
