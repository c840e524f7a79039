package account

import (
	"context"
)

// Repository defines the interface for user data access. Methods operate on
// live users only unless named otherwise; the IncludingDeleted variants bypass
// the logical-deletion exclusion for recovery lookups.
type Repository interface {
	// Create a new user
	Create(ctx context.Context, params CreateUserParams) (*User, error)

	// Get a live user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// Get a user by ID, including logically deleted ones
	GetByIDIncludingDeleted(ctx context.Context, id int64) (*User, error)

	// Get a live user by normalized username
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Get a live user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Check whether a username exists, including on deleted accounts
	UsernameExists(ctx context.Context, username string) (bool, error)

	// Mark the user as verified; idempotent
	SetVerified(ctx context.Context, id int64) error

	// Set the logical deletion marker to now
	MarkDeleted(ctx context.Context, id int64) error

	// Clear the logical deletion marker
	ClearDeleted(ctx context.Context, id int64) error

	// Replace the stored password hash
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}
