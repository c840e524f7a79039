package api

import (
	"github.com/tendant/simple-account/pkg/account"
)

// SignupParams is the JSON body of POST /api/signup
type SignupParams struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Password    string `json:"password"`
}

// SignupInput binds the signup request body
type SignupInput struct {
	Payload *SignupParams `in:"body=json"`
}

// LoginParams is the JSON body of POST /api/login
type LoginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginInput binds the login request body
type LoginInput struct {
	Payload *LoginParams `in:"body=json"`
}

// PasswordResetParams is the JSON body of POST /api/password-reset
type PasswordResetParams struct {
	Email string `json:"email"`
}

// PasswordChangeParams is the JSON body of POST /api/password-change
type PasswordChangeParams struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SetPasswordParams is the JSON body of POST /reset/{uid}/{token}
type SetPasswordParams struct {
	NewPassword string `json:"new_password"`
}

// ValidationResponse is the page shape of every lifecycle link endpoint:
// the resolved user (null when resolution failed) and whether this request
// performed the action. An already-done action is a success with
// executed=false, not an error.
type ValidationResponse struct {
	User     *account.User `json:"user"`
	Executed bool          `json:"executed"`
}

// DeleteResponse confirms a logical deletion and echoes the recovery link
// that was also emailed.
type DeleteResponse struct {
	RecoveryLink string `json:"recovery_link"`
}

// UserResponse wraps a user.
type UserResponse struct {
	User *account.User `json:"user"`
}

// MessageResponse is a generic confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is a generic error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
