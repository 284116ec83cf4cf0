// Package upstream is the typed client for the Chatify backend REST API.
// Every method follows the same contract: attach the bearer token on
// protected endpoints, translate a 401 into an unauthorized error without
// reading the response body, and extract human-readable messages from other
// failures with a graceful fallback chain.
package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/chatify/edge-server-go/internal/config"
	apperrors "github.com/chatify/edge-server-go/internal/errors"
)

type Client struct {
	baseURL string
	http    *http.Client
	chat    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: config.UpstreamTimeout},
		// Chat replies come from a language model; give them room.
		chat: &http.Client{Timeout: config.UpstreamChatTimeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// checkUnauthorized runs before any other response handling. On a 401 the
// body is never read: the caller purges the session and aborts.
func checkUnauthorized(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return apperrors.Unauthorized("Session expired or token rejected by the server")
	}
	return nil
}

// errorFromResponse extracts a descriptive message from a failed response.
// The backend is inconsistent about error shapes, so the chain is
// detail.error, then detail[0].msg, then error, then the raw body text,
// then the caller's fallback.
func errorFromResponse(resp *http.Response, fallback string) error {
	msg := fallback

	body, readErr := io.ReadAll(resp.Body)
	if readErr == nil {
		if extracted := extractErrorMessage(body); extracted != "" {
			msg = extracted
		}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.New(apperrors.ErrCodeNotFound, msg)
	case resp.StatusCode == http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case resp.StatusCode >= 500:
		return apperrors.New(apperrors.ErrCodeUpstream, msg)
	default:
		return apperrors.ValidationError(msg)
	}
}

func extractErrorMessage(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}

	if len(payload.Detail) > 0 {
		var obj struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(payload.Detail, &obj); err == nil && obj.Error != "" {
			return obj.Error
		}

		var list []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &list); err == nil && len(list) > 0 && list[0].Msg != "" {
			return list[0].Msg
		}
	}

	return payload.Error
}

func decodeJSON(resp *http.Response, dest any) error {
	return json.NewDecoder(resp.Body).Decode(dest)
}
