package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Session
}

// NewInMemoryRepository creates a new in-memory session repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sessions: make(map[uuid.UUID]Session),
	}
}

// Create creates a new session
func (r *InMemoryRepository) Create(ctx context.Context, expiresAt time.Time) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := Session{
		ID:        uuid.New(),
		Values:    make(map[string]string),
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	r.sessions[session.ID] = session

	result := copySession(session)
	return &result, nil
}

// Get gets a live session by ID
func (r *InMemoryRepository) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok || session.RevokedAt != nil || time.Now().UTC().After(session.ExpiresAt) {
		return nil, ErrSessionNotFound
	}

	result := copySession(session)
	return &result, nil
}

// SetUser binds a user to the session
func (r *InMemoryRepository) SetUser(ctx context.Context, id uuid.UUID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok || session.RevokedAt != nil {
		return ErrSessionNotFound
	}
	session.UserID = &userID
	r.sessions[id] = session
	return nil
}

// SetValue sets a key-value entry on the session
func (r *InMemoryRepository) SetValue(ctx context.Context, id uuid.UUID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok || session.RevokedAt != nil {
		return ErrSessionNotFound
	}
	if session.Values == nil {
		session.Values = make(map[string]string)
	}
	session.Values[key] = value
	r.sessions[id] = session
	return nil
}

// GetValue gets a key-value entry from the session
func (r *InMemoryRepository) GetValue(ctx context.Context, id uuid.UUID, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok || session.RevokedAt != nil {
		return "", ErrSessionNotFound
	}
	value, ok := session.Values[key]
	if !ok {
		return "", ErrValueNotFound
	}
	return value, nil
}

// Revoke revokes a session
func (r *InMemoryRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	now := time.Now().UTC()
	session.RevokedAt = &now
	r.sessions[id] = session
	return nil
}

// DeleteExpired removes expired sessions
func (r *InMemoryRepository) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for id, session := range r.sessions {
		if now.After(session.ExpiresAt) {
			delete(r.sessions, id)
		}
	}
	return nil
}

func copySession(s Session) Session {
	values := make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}
	s.Values = values
	return s
}
