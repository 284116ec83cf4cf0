package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/chatify/edge-server-go/internal/session"
)

const SessionCookie = "chatify_session"

type contextKey string

const SessionContextKey contextKey = "session"

// GetSession returns the resolved session state, or nil outside protected routes.
func GetSession(ctx context.Context) *session.State {
	if state, ok := ctx.Value(SessionContextKey).(*session.State); ok {
		return state
	}
	return nil
}

// SessionResolver is the manager surface the middleware needs.
type SessionResolver interface {
	Resolve(ctx context.Context, cookieToken string) (*session.State, error)
}

// SessionMiddleware gates protected views: it maps the gateway cookie to a
// session and rejects anything absent, malformed, or locally expired. The
// check is optimistic; the backend may still answer 401 on the actual call.
type SessionMiddleware struct {
	resolver SessionResolver
}

func NewSessionMiddleware(resolver SessionResolver) *SessionMiddleware {
	return &SessionMiddleware{resolver: resolver}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		state, err := m.resolver.Resolve(r.Context(), cookie.Value)
		if err != nil {
			log.Error().Err(err).Msg("session middleware: resolve failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Session validation failed",
			})
			return
		}

		if state == nil {
			ClearSessionCookie(w)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, state)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SetSessionCookie(w http.ResponseWriter, token string, maxAgeSeconds int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
