package upstream

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	apperrors "github.com/chatify/edge-server-go/internal/errors"
	"github.com/chatify/edge-server-go/internal/model"
)

// VerifyConnection reports whether the user's Spotify account is linked.
func (c *Client) VerifyConnection(ctx context.Context, token string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/spotify/auth/spotify/connected", nil, "", token)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, apperrors.Upstream("Could not verify Spotify connection", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return false, err
	}

	var payload struct {
		Connected bool `json:"connected"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return false, apperrors.Upstream("Could not verify Spotify connection", err)
	}
	return payload.Connected, nil
}

// ListPlaylists fetches the user's playlists. The backend sometimes wraps
// the list in a {playlists: …} object and sometimes returns a bare array;
// both shapes decode.
func (c *Client) ListPlaylists(ctx context.Context, token string) ([]model.Playlist, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/spotify/playlists", nil, "", token)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("Could not fetch playlists", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse(resp, "Could not fetch playlists")
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read playlists: %w", err)
	}

	var wrapped struct {
		Playlists []model.Playlist `json:"playlists"`
	}
	if json.Unmarshal(raw, &wrapped) == nil && wrapped.Playlists != nil {
		return wrapped.Playlists, nil
	}

	var bare []model.Playlist
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, apperrors.Upstream("Could not fetch playlists", err)
	}
	return bare, nil
}

// UpdatePlaylistParams carries a playlist edit. A non-nil Image is read and
// converted to a base64 data URL before transmission.
type UpdatePlaylistParams struct {
	Title            string
	Description      string
	Image            io.Reader
	ImageContentType string
}

// UpdatePlaylist renames a playlist and/or replaces its cover image.
func (c *Client) UpdatePlaylist(ctx context.Context, token, playlistID string, params UpdatePlaylistParams) error {
	payload := struct {
		Title       string `json:"title,omitempty"`
		Description string `json:"description,omitempty"`
		ImageBase64 string `json:"image_base64,omitempty"`
	}{
		Title:       params.Title,
		Description: params.Description,
	}

	if params.Image != nil {
		data, err := io.ReadAll(params.Image)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		contentType := params.ImageContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}
		payload.ImageBase64 = fmt.Sprintf("data:%s;base64,%s",
			contentType, base64.StdEncoding.EncodeToString(data))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPut, "/spotify/playlists/"+url.PathEscape(playlistID),
		bytes.NewReader(body), "application/json", token)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Upstream("Could not update playlist", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp, "Could not update playlist")
	}
	return nil
}

type GeneratedPlaylist struct {
	Message    string `json:"message"`
	PlaylistID string `json:"playlist_id"`
	Title      string `json:"title"`
}

// GeneratePlaylist asks the backend to build a playlist from a free-text
// prompt, carried as a query parameter.
func (c *Client) GeneratePlaylist(ctx context.Context, token, prompt string) (*GeneratedPlaylist, error) {
	path := "/spotify/playlists/generate?prompt=" + url.QueryEscape(prompt)
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, "", token)
	if err != nil {
		return nil, err
	}

	resp, err := c.chat.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("Could not generate playlist", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse(resp, "Could not generate playlist")
	}

	var generated GeneratedPlaylist
	if err := decodeJSON(resp, &generated); err != nil {
		return nil, apperrors.Upstream("Could not generate playlist", err)
	}
	return &generated, nil
}

// DeletePlaylist removes (unfollows) a playlist.
func (c *Client) DeletePlaylist(ctx context.Context, token, playlistID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/spotify/playlists/"+url.PathEscape(playlistID), nil, "", token)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Upstream("Could not delete playlist", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp, "Could not delete playlist")
	}
	return nil
}

// RemoveTracks deletes tracks from a playlist. The snapshot_id, when known,
// serializes the mutation against concurrent playlist edits; it is sent as
// last seen without re-verification, matching the client's optimistic flow.
func (c *Client) RemoveTracks(ctx context.Context, token, playlistID string, tracks []model.TrackURI, snapshotID string) error {
	payload := struct {
		Tracks     []model.TrackURI `json:"tracks"`
		SnapshotID string           `json:"snapshot_id,omitempty"`
	}{
		Tracks:     tracks,
		SnapshotID: snapshotID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodDelete, "/spotify/playlists/"+url.PathEscape(playlistID)+"/tracks",
		bytes.NewReader(body), "application/json", token)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Upstream("Could not remove tracks", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp, "Could not remove tracks")
	}
	return nil
}

// Lyrics looks up a lyrics page for an artist/song pair. The result is a
// tagged union; see model.LyricsResult.
func (c *Client) Lyrics(ctx context.Context, token, artist, song string) (*model.LyricsResult, error) {
	query := url.Values{}
	query.Set("artist", artist)
	query.Set("song", song)

	req, err := c.newRequest(ctx, http.MethodGet, "/spotify/lyrics?"+query.Encode(), nil, "", token)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("Could not fetch lyrics", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse(resp, "Could not fetch lyrics")
	}

	var result model.LyricsResult
	if err := decodeJSON(resp, &result); err != nil {
		return nil, apperrors.Upstream("Could not fetch lyrics", err)
	}
	return &result, nil
}

// Stats fetches the user's top artists, tracks, and genres for a time period.
func (c *Client) Stats(ctx context.Context, token string, period model.TimePeriod) (*model.MusicStats, error) {
	query := url.Values{}
	query.Set("period", string(period))

	req, err := c.newRequest(ctx, http.MethodGet, "/spotify/stats?"+query.Encode(), nil, "", token)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("Could not fetch stats", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse(resp, "Could not fetch stats")
	}

	var stats model.MusicStats
	if err := decodeJSON(resp, &stats); err != nil {
		return nil, apperrors.Upstream("Could not fetch stats", err)
	}
	if stats.Period == "" {
		stats.Period = period
	}
	return &stats, nil
}
