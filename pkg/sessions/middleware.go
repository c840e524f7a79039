package sessions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

type contextKey struct{}

var sessionContextKey = contextKey{}

// Middleware resolves the session cookie to a Session and puts it in the
// request context. When the cookie is missing or stale a fresh anonymous
// session is created and its cookie set on the response.
func Middleware(service *Service, cookies CookieSetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := resolve(r, service)
			if session == nil {
				var err error
				session, err = service.Create(r.Context())
				if err != nil {
					slog.Error("Failed to create session", "err", err)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				cookies.SetCookie(w, CookieName, session.ID.String(), session.ExpiresAt)
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolve(r *http.Request, service *Service) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return nil
	}
	session, err := service.Get(r.Context(), id)
	if err != nil {
		return nil
	}
	return session
}

// FromContext returns the session attached to the request context, or nil.
func FromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(sessionContextKey).(*Session)
	return session
}
