package account

import (
	"time"
)

// User represents an account in the system. DeletedAt is the logical deletion
// marker: nil means the account is live; non-nil means the account is hidden
// from live queries but still present for recovery lookups.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name,omitempty"`
	PasswordHash string     `json:"-"`
	IsVerified   bool       `json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the account is logically deleted.
func (u *User) IsDeleted() bool {
	return u != nil && u.DeletedAt != nil
}

// GetDisplayName returns the display name, falling back to the username.
func (u *User) GetDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// CreateUserParams contains parameters for creating a new user.
type CreateUserParams struct {
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
}
