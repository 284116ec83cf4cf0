package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/chatify/edge-server-go/internal/audit"
	apperrors "github.com/chatify/edge-server-go/internal/errors"
	"github.com/chatify/edge-server-go/internal/middleware"
	"github.com/chatify/edge-server-go/internal/model"
	"github.com/chatify/edge-server-go/internal/session"
	"github.com/chatify/edge-server-go/internal/upstream"
)

type AuthHandler struct {
	upstream     *upstream.Client
	manager      *session.Manager
	secureCookie bool
}

func NewAuthHandler(client *upstream.Client, manager *session.Manager, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		upstream:     client,
		manager:      manager,
		secureCookie: secureCookie,
	}
}

// Routes keeps login and register public; everything else requires a
// resolved session.
func (h *AuthHandler) Routes(sessionMW, rateLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(rateLimit).Post("/login", h.Login)
	r.Post("/register", h.Register)

	r.Group(func(r chi.Router) {
		r.Use(sessionMW)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Profile)
		r.Put("/me", h.UpdateProfile)
	})

	return r
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, apperrors.ValidationError("Username and password are required"))
		return
	}

	ctx := r.Context()

	result, err := h.upstream.Login(ctx, req.Username, req.Password)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:     audit.EventLoginFailure,
			Username: req.Username,
		})
		writeError(w, err)
		return
	}

	cookieToken, state, err := h.establishSession(ctx, r, result.Token)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue session")
		writeError(w, err)
		return
	}

	maxAge := int(time.Until(state.ExpiresAt).Seconds())
	middleware.SetSessionCookie(w, cookieToken, maxAge, h.secureCookie)

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventLoginSuccess,
		SessionID: state.ID,
		Username:  req.Username,
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"redirect_url": result.RedirectURL,
	})
}

// establishSession reuses the caller's live session when the browser still
// holds a valid cookie, replacing the stored upstream token in place;
// otherwise it issues a fresh session.
func (h *AuthHandler) establishSession(ctx context.Context, r *http.Request, upstreamToken string) (string, *session.State, error) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		existing, err := h.manager.Resolve(ctx, cookie.Value)
		if err == nil && existing != nil {
			state, err := h.manager.Refresh(ctx, existing, upstreamToken)
			if err != nil {
				return "", nil, err
			}
			return cookie.Value, state, nil
		}
	}
	return h.manager.Issue(ctx, upstreamToken)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, apperrors.ValidationError("Username, email and password are required"))
		return
	}

	message, err := h.upstream.Register(r.Context(), upstream.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventRegister,
		Username: req.Username,
	})

	writeJSON(w, http.StatusCreated, map[string]string{"message": message})
}

// POST /v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())

	if err := h.manager.Clear(r.Context(), state.ID); err != nil {
		log.Warn().Err(err).Str("sessionId", state.ID).Msg("failed to clear session on logout")
	}
	middleware.ClearSessionCookie(w)

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventLogout,
		SessionID: state.ID,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// GET /v1/auth/me
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())

	profile, err := h.upstream.Profile(r.Context(), state.Token)
	if err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// PUT /v1/auth/me
//
// A successful email change invalidates the upstream token, so the session
// is cleared and a flash message is queued for the login screen.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if req.Username == "" || req.Email == "" {
		writeError(w, apperrors.ValidationError("Username and email are required"))
		return
	}

	ctx := r.Context()

	current, err := h.upstream.Profile(ctx, state.Token)
	if err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	updated, err := h.upstream.UpdateProfile(ctx, state.Token, model.UpdateProfileParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventProfileUpdate,
		SessionID: state.ID,
		Username:  updated.Username,
	})

	if updated.Email != current.Email {
		// The cookie stays so the login screen can pick up the flash.
		h.manager.ForceLogout(ctx, state, "Your email was updated. Please log in again.")
		writeJSON(w, http.StatusOK, map[string]any{
			"profile":      updated,
			"redirect_url": "/login",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"profile": updated})
}
