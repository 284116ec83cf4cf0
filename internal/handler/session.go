package handler

import (
	"net/http"

	"github.com/chatify/edge-server-go/internal/middleware"
	"github.com/chatify/edge-server-go/internal/session"
	"github.com/chatify/edge-server-go/internal/util"
)

type SessionHandler struct {
	manager *session.Manager
}

func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// GET /v1/session
//
// Reports whether the caller holds a live session and hands over any
// pending one-shot flash message. The flash is keyed by the hash of the
// cookie token, so it survives even after a forced logout has deleted the
// session row.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cookie, err := r.Cookie(middleware.SessionCookie)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	state, err := h.manager.Resolve(ctx, cookie.Value)
	if err != nil {
		// Leave the flash alone so a transient failure does not burn
		// the one-shot message before anyone has seen it.
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Session validation failed"})
		return
	}

	flash := h.manager.ConsumeFlash(ctx, util.HashToken(cookie.Value))

	if state == nil {
		middleware.ClearSessionCookie(w)
		resp := map[string]any{"authenticated": false}
		if flash != "" {
			resp["flash"] = flash
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp := map[string]any{
		"authenticated": true,
		"expires_at":    state.ExpiresAt,
	}
	if flash != "" {
		resp["flash"] = flash
	}
	writeJSON(w, http.StatusOK, resp)
}
