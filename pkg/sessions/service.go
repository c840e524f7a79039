package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is the default session lifetime.
const DefaultTTL = 14 * 24 * time.Hour

// Service provides session management business logic
type Service struct {
	repo Repository
	ttl  time.Duration
}

// ServiceOption defines configuration options
type ServiceOption func(*Service)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// NewService creates a new session service
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo: repo,
		ttl:  DefaultTTL,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create starts a new anonymous session.
func (s *Service) Create(ctx context.Context) (*Session, error) {
	return s.repo.Create(ctx, time.Now().UTC().Add(s.ttl))
}

// Get resolves a live session by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.repo.Get(ctx, id)
}

// Login binds the user to the session.
func (s *Service) Login(ctx context.Context, id uuid.UUID, userID int64) error {
	return s.repo.SetUser(ctx, id, userID)
}

// Logout revokes the session. The next request starts a fresh one.
func (s *Service) Logout(ctx context.Context, id uuid.UUID) error {
	return s.repo.Revoke(ctx, id)
}

// SetValue stores a key-value entry on the session.
func (s *Service) SetValue(ctx context.Context, id uuid.UUID, key, value string) error {
	return s.repo.SetValue(ctx, id, key, value)
}

// GetValue reads a key-value entry from the session.
func (s *Service) GetValue(ctx context.Context, id uuid.UUID, key string) (string, error) {
	return s.repo.GetValue(ctx, id, key)
}

// DeleteExpired removes expired sessions.
func (s *Service) DeleteExpired(ctx context.Context) error {
	return s.repo.DeleteExpired(ctx)
}
