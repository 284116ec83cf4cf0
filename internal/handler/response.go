package handler

import (
	"net/http"

	"github.com/chatify/edge-server-go/internal/audit"
	apperrors "github.com/chatify/edge-server-go/internal/errors"
	"github.com/chatify/edge-server-go/internal/httputil"
	"github.com/chatify/edge-server-go/internal/middleware"
	"github.com/chatify/edge-server-go/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// handleUnauthorized purges the session when the upstream rejected its
// bearer token and tells the browser where to go next. The session
// cookie stays in place so the flash message can still be consumed on
// the login screen.
func handleUnauthorized(w http.ResponseWriter, r *http.Request, manager *session.Manager, state *session.State) {
	if state != nil {
		manager.ForceLogout(r.Context(), state, session.ExpiredMessage)
		audit.LogFromRequest(r, audit.Event{
			Type:      audit.EventForcedLogout,
			SessionID: state.ID,
		})
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"error":        "Unauthorized",
		"redirect_url": "/login",
	})
}

// respondServiceError routes upstream failures: 401s force a logout,
// everything else maps through the shared error writer.
func respondServiceError(w http.ResponseWriter, r *http.Request, manager *session.Manager, err error) {
	if apperrors.IsUnauthorized(err) {
		handleUnauthorized(w, r, manager, middleware.GetSession(r.Context()))
		return
	}
	writeError(w, err)
}
