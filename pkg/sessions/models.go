package sessions

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when a session does not exist, is revoked,
	// or is expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrValueNotFound is returned when a session has no value under the key.
	ErrValueNotFound = errors.New("session value not found")
)

// Session is one browser session: an opaque ID handed out in a cookie, an
// optional authenticated user, and a small string key-value store used by the
// link-exchange flows.
type Session struct {
	ID        uuid.UUID         `json:"id"`
	UserID    *int64            `json:"user_id,omitempty"`
	Values    map[string]string `json:"values,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
	RevokedAt *time.Time        `json:"revoked_at,omitempty"`
}

// IsAuthenticated reports whether a user is bound to the session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != nil
}
