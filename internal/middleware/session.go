package middleware

import (
	"context"
	"net/http"

	"github.com/fracturedetect/internal/session"
)

const SessionCookieName = "fd_session"

type contextKey string

const contextKeySession contextKey = "session"

// SessionStore looks up and creates UI sessions.
type SessionStore interface {
	Get(id string) (*session.Session, bool)
	Create() *session.Session
}

// Session binds every request to a UI session. Requests without a valid
// session cookie get a fresh idle session and a new cookie.
func Session(sessions SessionStore, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var s *session.Session
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				s, _ = sessions.Get(cookie.Value)
			}

			if s == nil {
				s = sessions.Create()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    s.ID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secureCookies,
					SameSite: http.SameSiteStrictMode,
				})
			}

			ctx := context.WithValue(r.Context(), contextKeySession, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session bound by the Session middleware.
func SessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(contextKeySession).(*session.Session)
	return s
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, contextKeySession, s)
}
