package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tendant/simple-account/pkg/notification"
	"github.com/tendant/simple-account/pkg/validationtoken"
)

const (
	validationKeySalt    = "simple-account.validation"
	recoveryKeySalt      = "simple-account.recovery"
	passwordResetKeySalt = "simple-account.password-reset"
)

// AccountService implements the account lifecycle: registration, signup
// validation, authentication, logical deletion with email-link recovery, and
// password reset. Tokens are stateless; every link is verified by
// recomputation against the user id and the signing secret.
type AccountService struct {
	repo                Repository
	notificationManager *notification.NotificationManager
	hasher              PasswordHasher
	validationTokens    *validationtoken.Generator
	recoveryTokens      *validationtoken.Generator
	resetTokens         *validationtoken.Generator
	baseURL             string
	tokenMaxAgeDays     int
	postCreateHook      PostCreateHook
	now                 func() time.Time
}

// PostCreateHook runs synchronously after a user is first created. The default
// hook sends the validation email; replacing it keeps ordering and error
// propagation explicit instead of hiding them behind event subscriptions.
type PostCreateHook func(ctx context.Context, user *User) error

// AccountServiceOption defines configuration options
type AccountServiceOption func(*AccountService)

// WithTokenMaxAgeDays sets the validity window of emailed links, in days.
func WithTokenMaxAgeDays(days int) AccountServiceOption {
	return func(s *AccountService) {
		s.tokenMaxAgeDays = days
	}
}

// WithPasswordHasher sets the password hasher.
func WithPasswordHasher(h PasswordHasher) AccountServiceOption {
	return func(s *AccountService) {
		s.hasher = h
	}
}

// WithPostCreateHook replaces the default post-creation hook.
func WithPostCreateHook(hook PostCreateHook) AccountServiceOption {
	return func(s *AccountService) {
		s.postCreateHook = hook
	}
}

// WithNow overrides the token clock, for tests.
func WithNow(now func() time.Time) AccountServiceOption {
	return func(s *AccountService) {
		s.now = now
	}
}

// NewAccountService creates a new account service. The secret signs every
// emailed link and must stay stable across deploys.
func NewAccountService(
	repo Repository,
	notificationManager *notification.NotificationManager,
	baseURL string,
	secret string,
	opts ...AccountServiceOption,
) (*AccountService, error) {
	s := &AccountService{
		repo:                repo,
		notificationManager: notificationManager,
		baseURL:             baseURL,
		hasher:              NewBcryptHasher(),
		tokenMaxAgeDays:     validationtoken.DefaultMaxAgeDays,
	}

	for _, opt := range opts {
		opt(s)
	}

	genOpts := []validationtoken.GeneratorOption{
		validationtoken.WithMaxAgeDays(s.tokenMaxAgeDays),
	}
	if s.now != nil {
		genOpts = append(genOpts, validationtoken.WithNow(s.now))
	}

	var err error
	s.validationTokens, err = validationtoken.NewGenerator(secret,
		append(genOpts, validationtoken.WithKeySalt(validationKeySalt))...)
	if err != nil {
		return nil, err
	}
	s.recoveryTokens, err = validationtoken.NewGenerator(secret,
		append(genOpts, validationtoken.WithKeySalt(recoveryKeySalt))...)
	if err != nil {
		return nil, err
	}
	s.resetTokens, err = validationtoken.NewGenerator(secret,
		append(genOpts, validationtoken.WithKeySalt(passwordResetKeySalt))...)
	if err != nil {
		return nil, err
	}

	if s.postCreateHook == nil {
		s.postCreateHook = func(ctx context.Context, user *User) error {
			return s.SendValidationLink(ctx, user)
		}
	}

	return s, nil
}

// RegisterParams contains parameters for registering a new user.
type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// Register creates a new user and invokes the post-create hook. Username
// uniqueness covers logically deleted accounts, matching the database
// constraint.
func (s *AccountService) Register(ctx context.Context, params RegisterParams) (*User, error) {
	username := NormalizeUsername(params.Username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if params.Email == "" {
		return nil, fmt.Errorf("email is required")
	}

	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, CreateUserParams{
		Username:     username,
		Email:        params.Email,
		DisplayName:  params.DisplayName,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, err
	}

	if err := s.postCreateHook(ctx, user); err != nil {
		// The account exists; link delivery is best effort and can be renewed.
		slog.Error("Post-create hook failed", "user_id", user.ID, "err", err)
	}

	slog.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate resolves a live user by username and verifies the password.
// Unknown users, deleted users, and wrong passwords are indistinguishable.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser resolves a live user by id.
func (s *AccountService) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UsernameAvailable reports whether a username can be registered.
func (s *AccountService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = NormalizeUsername(username)
	if err := ValidateUsername(username); err != nil {
		return false, nil
	}
	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// ResolveUser resolves the encoded id from a URL to a live user. Any decode or
// lookup failure yields a nil user, never an error the caller could leak.
func (s *AccountService) ResolveUser(ctx context.Context, encodedID string) *User {
	id, err := DecodeUserID(encodedID)
	if err != nil {
		return nil
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return user
}

// ResolveUserIncludingDeleted is ResolveUser against the all-records view. The
// recovery flow must see logically deleted users.
func (s *AccountService) ResolveUserIncludingDeleted(ctx context.Context, encodedID string) *User {
	id, err := DecodeUserID(encodedID)
	if err != nil {
		return nil
	}
	user, err := s.repo.GetByIDIncludingDeleted(ctx, id)
	if err != nil {
		return nil
	}
	return user
}

// VerifySignup validates a signup link. Returns the resolved user (nil when
// resolution failed) and whether the verification state was mutated by this
// call. Already-verified users and invalid tokens are a no-op, not an error.
func (s *AccountService) VerifySignup(ctx context.Context, encodedID, token string) (*User, bool) {
	user := s.ResolveUser(ctx, encodedID)
	if user == nil {
		return nil, false
	}

	if !s.validationTokens.CheckToken(user.ID, token) || user.IsVerified {
		return user, false
	}

	if err := s.repo.SetVerified(ctx, user.ID); err != nil {
		slog.Error("Failed to mark user as verified", "user_id", user.ID, "err", err)
		return user, false
	}
	user.IsVerified = true

	slog.Info("User verified", "user_id", user.ID)
	return user, true
}

// SendValidationLink emails the signup validation link to the user.
func (s *AccountService) SendValidationLink(ctx context.Context, user *User) error {
	token, err := s.validationTokens.MakeToken(user.ID)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/validation/%s/%s", s.baseURL, EncodeUserID(user.ID), token)
	return s.send(notification.AccountValidationNotice, user, map[string]string{
		"Name":           user.GetDisplayName(),
		"ValidationLink": link,
		"ExpiryDays":     strconv.Itoa(s.tokenMaxAgeDays),
	})
}

// RecoveryLinkPath returns the relative recovery URL for a user, with a fresh
// token.
func (s *AccountService) RecoveryLinkPath(user *User) (string, error) {
	token, err := s.recoveryTokens.MakeToken(user.ID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/recovery/%s/%s", EncodeUserID(user.ID), token), nil
}

// Delete logically deletes the account. The recovery email goes out before the
// deletion marker is set: once the account is deleted, live queries no longer
// surface it for normal token-issuing flows. The caller ends the session.
func (s *AccountService) Delete(ctx context.Context, userID int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrAlreadyDeleted
		}
		return nil, err
	}

	path, err := s.RecoveryLinkPath(user)
	if err != nil {
		return nil, err
	}
	err = s.send(notification.AccountRecoveryNotice, user, map[string]string{
		"Name":         user.GetDisplayName(),
		"RecoveryLink": s.baseURL + path,
		"ExpiryDays":   strconv.Itoa(s.tokenMaxAgeDays),
	})
	if err != nil {
		// Fire and forget. The deletion proceeds; the link was also handed to
		// the delete response.
		slog.Error("Failed to send recovery email", "user_id", user.ID, "err", err)
	}

	if err := s.repo.MarkDeleted(ctx, user.ID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user.DeletedAt = &now

	slog.Info("User logically deleted", "user_id", user.ID)
	return user, nil
}

// CheckRecoveryToken reports whether the token authorizes recovery of the
// user. A nil user always fails.
func (s *AccountService) CheckRecoveryToken(user *User, token string) bool {
	if user == nil {
		return false
	}
	return s.recoveryTokens.CheckToken(user.ID, token)
}

// Recover clears the logical deletion marker. Idempotent: recovering an
// already-live account is a no-op.
func (s *AccountService) Recover(ctx context.Context, userID int64) (*User, error) {
	if err := s.repo.ClearDeleted(ctx, userID); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	slog.Info("User recovered", "user_id", user.ID)
	return user, nil
}

// RequestPasswordReset emails a reset link to the address, if a live account
// has it. Unknown addresses are silently ignored so the endpoint cannot be
// used to probe for accounts.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, err := s.resetTokens.MakeToken(user.ID)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset/%s/%s", s.baseURL, EncodeUserID(user.ID), token)
	return s.send(notification.PasswordResetNotice, user, map[string]string{
		"Name":       user.GetDisplayName(),
		"ResetLink":  link,
		"ExpiryDays": strconv.Itoa(s.tokenMaxAgeDays),
	})
}

// CheckPasswordResetToken reports whether the token authorizes a password
// reset for the user.
func (s *AccountService) CheckPasswordResetToken(user *User, token string) bool {
	if user == nil {
		return false
	}
	return s.resetTokens.CheckToken(user.ID, token)
}

// SetPassword replaces the user's password.
func (s *AccountService) SetPassword(ctx context.Context, userID int64, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	slog.Info("Password updated", "user_id", userID)
	return nil
}

// ChangePassword verifies the current password before replacing it.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	return s.SetPassword(ctx, userID, newPassword)
}

func (s *AccountService) send(noticeType notification.NoticeType, user *User, data map[string]string) error {
	if s.notificationManager == nil {
		slog.Warn("Notification manager not configured, skipping email send", "notice", noticeType)
		return nil
	}
	return s.notificationManager.Send(noticeType, notification.NotificationData{
		To:   user.Email,
		Data: data,
	})
}
