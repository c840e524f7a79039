package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for session data access
type Repository interface {
	// Create a new session
	Create(ctx context.Context, expiresAt time.Time) (*Session, error)

	// Get a live (not revoked, not expired) session by ID
	Get(ctx context.Context, id uuid.UUID) (*Session, error)

	// Bind a user to the session (login)
	SetUser(ctx context.Context, id uuid.UUID, userID int64) error

	// Set a key-value entry on the session; a single atomic write
	SetValue(ctx context.Context, id uuid.UUID, key, value string) error

	// Get a key-value entry from the session
	GetValue(ctx context.Context, id uuid.UUID, key string) (string, error)

	// Revoke a session (logout, account deletion)
	Revoke(ctx context.Context, id uuid.UUID) error

	// Cleanup expired sessions (for maintenance)
	DeleteExpired(ctx context.Context) error
}
