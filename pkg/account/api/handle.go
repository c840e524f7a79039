package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ggicci/httpin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"
	"github.com/tendant/simple-account/pkg/account"
	"github.com/tendant/simple-account/pkg/sessions"
)

const (
	// internalRecoveryURLToken replaces the real recovery token in the URL
	// once it has been exchanged into the session, so the token cannot leak
	// through the Referer header of the rendered page. It doubles as the
	// session key the real token is stored under.
	internalRecoveryURLToken = "_account_recovery_token"

	// internalResetURLToken is the password-reset counterpart.
	internalResetURLToken = "_password_reset_token"

	notFoundMessage = "The user could not be found."
)

// Handle serves the account HTTP surface.
type Handle struct {
	accountService      *account.AccountService
	sessionService      *sessions.Service
	cookies             sessions.CookieSetter
	registrationEnabled bool
}

// Option is a functional option for configuring Handle
type Option func(*Handle)

// WithRegistrationEnabled toggles the signup endpoint.
func WithRegistrationEnabled(enabled bool) Option {
	return func(h *Handle) {
		h.registrationEnabled = enabled
	}
}

// NewHandle creates a new account API handler
func NewHandle(accountService *account.AccountService, sessionService *sessions.Service, cookies sessions.CookieSetter, opts ...Option) *Handle {
	h := &Handle{
		accountService:      accountService,
		sessionService:      sessionService,
		cookies:             cookies,
		registrationEnabled: true,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// RegisterRoutes mounts the account routes on the router. The router must run
// the sessions middleware.
func (h *Handle) RegisterRoutes(r chi.Router) {
	r.With(httpin.NewInput(SignupInput{})).Post("/api/signup", h.Signup)
	r.With(httpin.NewInput(LoginInput{})).Post("/api/login", h.Login)
	r.Post("/api/logout", h.Logout)
	r.Get("/api/username-check", h.UsernameCheck)
	r.Post("/api/renew-validation-link", h.RenewValidationLink)
	r.Post("/api/account/delete", h.Delete)
	r.Post("/api/password-reset", h.PasswordResetRequest)
	r.Post("/api/password-change", h.PasswordChange)

	r.Get("/validation/{uid}/{token}", h.Validation)
	r.Get("/recovery/{uid}/{token}", h.Recovery)
	r.Get("/reset/{uid}/{token}", h.ResetExchange)
	r.Post("/reset/{uid}/{token}", h.ResetConfirm)
}

// Signup handles POST /api/signup
func (h *Handle) Signup(w http.ResponseWriter, r *http.Request) {
	if !h.registrationEnabled {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, ErrorResponse{Error: "Registration is disabled"})
		return
	}

	input := r.Context().Value(httpin.Input).(*SignupInput)
	params := input.Payload
	if params == nil || params.Username == "" || params.Email == "" || params.Password == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Username, email, and password are required"})
		return
	}

	registerParams := account.RegisterParams{}
	copier.Copy(&registerParams, params)

	user, err := h.accountService.Register(r.Context(), registerParams)
	if err != nil {
		status := http.StatusBadRequest
		message := err.Error()
		switch {
		case errors.Is(err, account.ErrUsernameTaken), errors.Is(err, account.ErrEmailTaken):
			status = http.StatusConflict
		case errors.Is(err, account.ErrInvalidUsername):
			status = http.StatusBadRequest
		default:
			slog.Error("Failed to register user", "err", err)
			status = http.StatusInternalServerError
			message = "Failed to register user"
		}
		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	// Sign the new user in right away, as the signup page does.
	if err := h.startSession(w, r, user.ID); err != nil {
		slog.Error("Failed to start session after signup", "user_id", user.ID, "err", err)
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, UserResponse{User: user})
}

// Login handles POST /api/login
func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	input := r.Context().Value(httpin.Input).(*LoginInput)
	params := input.Payload
	if params == nil || params.Username == "" || params.Password == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Username and password are required"})
		return
	}

	user, err := h.accountService.Authenticate(r.Context(), params.Username, params.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, ErrorResponse{Error: "Invalid username or password"})
			return
		}
		slog.Error("Failed to authenticate user", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "Login failed"})
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		slog.Error("Failed to start session", "user_id", user.ID, "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "Login failed"})
		return
	}

	render.JSON(w, r, UserResponse{User: user})
}

// Logout handles POST /api/logout
func (h *Handle) Logout(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	render.JSON(w, r, MessageResponse{Message: "Logged out"})
}

// UsernameCheck handles GET /api/username-check?username=
func (h *Handle) UsernameCheck(w http.ResponseWriter, r *http.Request) {
	valid := false
	username := r.URL.Query().Get("username")
	if username != "" {
		available, err := h.accountService.UsernameAvailable(r.Context(), username)
		if err != nil {
			slog.Error("Failed to check username", "err", err)
		} else {
			valid = available
		}
	}
	render.JSON(w, r, valid)
}

// Validation handles GET /validation/{uid}/{token}. The response always has
// the same shape; executed reports whether this request flipped the
// verification state.
func (h *Handle) Validation(w http.ResponseWriter, r *http.Request) {
	user, executed := h.accountService.VerifySignup(r.Context(),
		chi.URLParam(r, "uid"), chi.URLParam(r, "token"))
	render.JSON(w, r, ValidationResponse{User: user, Executed: executed})
}

// RenewValidationLink handles POST /api/renew-validation-link
func (h *Handle) RenewValidationLink(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		unauthorized(w, r)
		return
	}
	if user.IsVerified {
		render.JSON(w, r, ValidationResponse{User: user, Executed: false})
		return
	}

	if err := h.accountService.SendValidationLink(r.Context(), user); err != nil {
		slog.Error("Failed to send validation link", "user_id", user.ID, "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "Failed to send validation link"})
		return
	}
	render.JSON(w, r, ValidationResponse{User: user, Executed: true})
}

// Delete handles POST /api/account/delete. Deletion runs only through an
// authenticated POST so a spammed link cannot trigger it.
func (h *Handle) Delete(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		unauthorized(w, r)
		return
	}

	deleted, err := h.accountService.Delete(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to delete account", "user_id", user.ID, "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "Failed to delete account"})
		return
	}

	recoveryLink, err := h.accountService.RecoveryLinkPath(deleted)
	if err != nil {
		slog.Error("Failed to build recovery link", "user_id", user.ID, "err", err)
	}

	h.endSession(w, r)
	render.JSON(w, r, DeleteResponse{RecoveryLink: recoveryLink})
}

// Recovery handles GET /recovery/{uid}/{token} as a two-state exchange. A real
// token, once verified, is stored in the session and the client redirected to
// the same path with the token replaced by a fixed placeholder; the
// placeholder request re-verifies the session-stored token and performs the
// recovery. The lookup uses the all-records view: the subject user is
// normally logically deleted at this point.
func (h *Handle) Recovery(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	user := h.accountService.ResolveUserIncludingDeleted(r.Context(), chi.URLParam(r, "uid"))
	if user == nil {
		notFound(w, r)
		return
	}

	session := sessions.FromContext(r.Context())
	if session == nil {
		notFound(w, r)
		return
	}

	if token == internalRecoveryURLToken {
		stored, err := h.sessionService.GetValue(r.Context(), session.ID, internalRecoveryURLToken)
		if err != nil || !h.accountService.CheckRecoveryToken(user, stored) {
			notFound(w, r)
			return
		}

		wasDeleted := user.IsDeleted()
		recovered, err := h.accountService.Recover(r.Context(), user.ID)
		if err != nil {
			slog.Error("Failed to recover account", "user_id", user.ID, "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "Failed to recover account"})
			return
		}
		render.JSON(w, r, ValidationResponse{User: recovered, Executed: wasDeleted})
		return
	}

	if h.accountService.CheckRecoveryToken(user, token) {
		// Store the token in the session and redirect to the same path with
		// the token swapped for the placeholder, so the real token never
		// appears in the Referer header of subsequent navigation.
		err := h.sessionService.SetValue(r.Context(), session.ID, internalRecoveryURLToken, token)
		if err != nil {
			slog.Error("Failed to store recovery token in session", "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "Failed to recover account"})
			return
		}
		redirectURL := strings.Replace(r.URL.Path, token, internalRecoveryURLToken, 1)
		http.Redirect(w, r, redirectURL, http.StatusFound)
		return
	}

	notFound(w, r)
}

// PasswordResetRequest handles POST /api/password-reset. The response never
// reveals whether the address has an account.
func (h *Handle) PasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var params PasswordResetParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil || params.Email == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Email is required"})
		return
	}

	if err := h.accountService.RequestPasswordReset(r.Context(), params.Email); err != nil {
		slog.Error("Failed to send password reset email", "err", err)
	}
	render.JSON(w, r, MessageResponse{Message: "If the address has an account, a reset link is on its way"})
}

// ResetExchange handles GET /reset/{uid}/{token}: the same token-to-session
// exchange as the recovery flow, with its own placeholder and session key.
func (h *Handle) ResetExchange(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	user := h.accountService.ResolveUser(r.Context(), chi.URLParam(r, "uid"))
	if user == nil {
		notFound(w, r)
		return
	}

	session := sessions.FromContext(r.Context())
	if session == nil {
		notFound(w, r)
		return
	}

	if token == internalResetURLToken {
		stored, err := h.sessionService.GetValue(r.Context(), session.ID, internalResetURLToken)
		if err != nil || !h.accountService.CheckPasswordResetToken(user, stored) {
			notFound(w, r)
			return
		}
		render.JSON(w, r, MessageResponse{Message: "Token valid, submit the new password"})
		return
	}

	if h.accountService.CheckPasswordResetToken(user, token) {
		err := h.sessionService.SetValue(r.Context(), session.ID, internalResetURLToken, token)
		if err != nil {
			slog.Error("Failed to store reset token in session", "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "Failed to reset password"})
			return
		}
		redirectURL := strings.Replace(r.URL.Path, token, internalResetURLToken, 1)
		http.Redirect(w, r, redirectURL, http.StatusFound)
		return
	}

	notFound(w, r)
}

// ResetConfirm handles POST /reset/{uid}/{token}. Only the placeholder form of
// the URL is accepted: the real token must have been exchanged first.
func (h *Handle) ResetConfirm(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "token") != internalResetURLToken {
		notFound(w, r)
		return
	}

	user := h.accountService.ResolveUser(r.Context(), chi.URLParam(r, "uid"))
	if user == nil {
		notFound(w, r)
		return
	}

	session := sessions.FromContext(r.Context())
	if session == nil {
		notFound(w, r)
		return
	}

	stored, err := h.sessionService.GetValue(r.Context(), session.ID, internalResetURLToken)
	if err != nil || !h.accountService.CheckPasswordResetToken(user, stored) {
		notFound(w, r)
		return
	}

	var params SetPasswordParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil || params.NewPassword == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "New password is required"})
		return
	}

	if err := h.accountService.SetPassword(r.Context(), user.ID, params.NewPassword); err != nil {
		slog.Error("Failed to set password", "user_id", user.ID, "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "Failed to reset password"})
		return
	}

	render.JSON(w, r, MessageResponse{Message: "Password has been reset"})
}

// PasswordChange handles POST /api/password-change for authenticated users.
func (h *Handle) PasswordChange(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		unauthorized(w, r)
		return
	}

	var params PasswordChangeParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil ||
		params.CurrentPassword == "" || params.NewPassword == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Current and new passwords are required"})
		return
	}

	err := h.accountService.ChangePassword(r.Context(), user.ID, params.CurrentPassword, params.NewPassword)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, ErrorResponse{Error: "Current password is incorrect"})
			return
		}
		slog.Error("Failed to change password", "user_id", user.ID, "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "Failed to change password"})
		return
	}

	render.JSON(w, r, MessageResponse{Message: "Password has been changed"})
}

// currentUser resolves the authenticated user of the request, or nil.
func (h *Handle) currentUser(r *http.Request) *account.User {
	session := sessions.FromContext(r.Context())
	if !session.IsAuthenticated() {
		return nil
	}
	user, err := h.accountService.GetUser(r.Context(), *session.UserID)
	if err != nil {
		return nil
	}
	return user
}

// startSession rotates the request's session and binds the user to the fresh
// one, so a pre-login session ID cannot be fixated.
func (h *Handle) startSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	if old := sessions.FromContext(r.Context()); old != nil {
		h.sessionService.Logout(r.Context(), old.ID)
	}

	session, err := h.sessionService.Create(r.Context())
	if err != nil {
		return err
	}
	if err := h.sessionService.Login(r.Context(), session.ID, userID); err != nil {
		return err
	}
	return h.cookies.SetCookie(w, sessions.CookieName, session.ID.String(), session.ExpiresAt)
}

// endSession revokes the request's session and clears the cookie.
func (h *Handle) endSession(w http.ResponseWriter, r *http.Request) {
	if session := sessions.FromContext(r.Context()); session != nil {
		h.sessionService.Logout(r.Context(), session.ID)
	}
	h.cookies.ClearCookie(w, sessions.CookieName)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, ErrorResponse{Error: notFoundMessage})
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, ErrorResponse{Error: "Authentication required"})
}
