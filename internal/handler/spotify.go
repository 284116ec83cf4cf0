package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/chatify/edge-server-go/internal/errors"
	"github.com/chatify/edge-server-go/internal/middleware"
	"github.com/chatify/edge-server-go/internal/model"
	"github.com/chatify/edge-server-go/internal/session"
	"github.com/chatify/edge-server-go/internal/upstream"
)

type SpotifyHandler struct {
	upstream *upstream.Client
	manager  *session.Manager
}

func NewSpotifyHandler(client *upstream.Client, manager *session.Manager) *SpotifyHandler {
	return &SpotifyHandler{
		upstream: client,
		manager:  manager,
	}
}

func (h *SpotifyHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/connected", h.Connected)
	r.Get("/playlists", h.ListPlaylists)
	r.Post("/playlists/generate", h.GeneratePlaylist)
	r.Put("/playlists/{playlistID}", h.UpdatePlaylist)
	r.Delete("/playlists/{playlistID}", h.DeletePlaylist)
	r.Delete("/playlists/{playlistID}/tracks", h.RemoveTracks)
	r.Get("/lyrics", h.Lyrics)
	r.Get("/stats", h.Stats)

	return r
}

// GET /v1/spotify/connected
//
// A failed probe reads as "not connected"; only a rejected session is
// surfaced.
func (h *SpotifyHandler) Connected(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())

	connected, err := h.upstream.VerifyConnection(r.Context(), state.Token)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			handleUnauthorized(w, r, h.manager, state)
			return
		}
		log.Warn().Err(err).Msg("spotify connection probe failed")
		connected = false
	}

	writeJSON(w, http.StatusOK, map[string]bool{"connected": connected})
}

// GET /v1/spotify/playlists
func (h *SpotifyHandler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())

	playlists, err := h.upstream.ListPlaylists(r.Context(), state.Token)
	if err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}
	if playlists == nil {
		playlists = []model.Playlist{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

// POST /v1/spotify/playlists/generate?prompt=...
func (h *SpotifyHandler) GeneratePlaylist(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())

	prompt := r.URL.Query().Get("prompt")
	if strings.TrimSpace(prompt) == "" {
		writeError(w, apperrors.MissingRequired("Prompt"))
		return
	}

	generated, err := h.upstream.GeneratePlaylist(r.Context(), state.Token, prompt)
	if err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, generated)
}

// PUT /v1/spotify/playlists/{playlistID}
//
// Accepts multipart form data so the browser can attach a cover image. The
// image part is forwarded upstream as a base64 data URL.
func (h *SpotifyHandler) UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())
	playlistID := chi.URLParam(r, "playlistID")

	params := upstream.UpdatePlaylistParams{}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(middleware.DefaultMaxBodySize); err != nil {
			writeError(w, apperrors.InvalidInput("body", "malformed multipart data"))
			return
		}
		params.Title = r.FormValue("title")
		params.Description = r.FormValue("description")

		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			params.Image = file
			params.ImageContentType = header.Header.Get("Content-Type")
		} else if err != http.ErrMissingFile {
			writeError(w, apperrors.InvalidInput("image", "unreadable upload"))
			return
		}
	} else {
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
			return
		}
		params.Title = req.Title
		params.Description = req.Description
	}

	if strings.TrimSpace(params.Title) == "" {
		writeError(w, apperrors.MissingRequired("Title"))
		return
	}

	if err := h.upstream.UpdatePlaylist(r.Context(), state.Token, playlistID, params); err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Playlist updated"})
}

// DELETE /v1/spotify/playlists/{playlistID}
func (h *SpotifyHandler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())
	playlistID := chi.URLParam(r, "playlistID")

	if err := h.upstream.DeletePlaylist(r.Context(), state.Token, playlistID); err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Playlist deleted"})
}

type removeTracksRequest struct {
	Tracks     []model.TrackURI `json:"tracks"`
	SnapshotID string           `json:"snapshot_id,omitempty"`
}

// DELETE /v1/spotify/playlists/{playlistID}/tracks
func (h *SpotifyHandler) RemoveTracks(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())
	playlistID := chi.URLParam(r, "playlistID")

	var req removeTracksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if len(req.Tracks) == 0 {
		writeError(w, apperrors.ValidationError("At least one track is required"))
		return
	}

	err := h.upstream.RemoveTracks(r.Context(), state.Token, playlistID, req.Tracks, req.SnapshotID)
	if err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Tracks removed"})
}

// GET /v1/spotify/lyrics?artist=...&song=...
func (h *SpotifyHandler) Lyrics(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())

	artist := r.URL.Query().Get("artist")
	song := r.URL.Query().Get("song")
	if artist == "" || song == "" {
		writeError(w, apperrors.ValidationError("Artist and song are required"))
		return
	}

	result, err := h.upstream.Lyrics(r.Context(), state.Token, artist, song)
	if err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /v1/spotify/stats?period=...
func (h *SpotifyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())

	period := model.TimePeriod(r.URL.Query().Get("period"))
	if period == "" {
		period = model.PeriodMediumTerm
	}
	if !period.Valid() {
		writeError(w, apperrors.InvalidInput("period", "unknown value"))
		return
	}

	stats, err := h.upstream.Stats(r.Context(), state.Token, period)
	if err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
