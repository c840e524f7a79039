package account

import "errors"

var (
	// ErrUserNotFound is returned when a user does not exist (or is logically
	// deleted and the query only covers live users).
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when the requested username already exists,
	// including on logically deleted accounts.
	ErrUsernameTaken = errors.New("username already associated with an account")

	// ErrEmailTaken is returned when the requested email already exists.
	ErrEmailTaken = errors.New("email already associated with an account")

	// ErrInvalidUsername is returned when a username fails validation.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrInvalidCredentials is returned when authentication fails. Deleted
	// accounts fail authentication the same way as wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAlreadyDeleted is returned when deleting an account that is already
	// logically deleted.
	ErrAlreadyDeleted = errors.New("account already deleted")
)
