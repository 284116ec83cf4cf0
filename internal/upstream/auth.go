package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/chatify/edge-server-go/internal/errors"
	"github.com/chatify/edge-server-go/internal/model"
)

type LoginResult struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Login exchanges credentials for a bearer token. The endpoint is
// form-encoded and unprotected; a 401 here means bad credentials, not an
// expired session, so it goes through the normal error chain.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", "")
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("Login failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse(resp, "Login failed")
	}

	var payload struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, apperrors.Upstream("Login failed", err)
	}

	token := payload.Token
	if token == "" {
		token = payload.AccessToken
	}
	if token == "" || payload.RedirectURL == "" {
		return nil, apperrors.Upstream("Incomplete response from server", nil)
	}

	return &LoginResult{Token: token, RedirectURL: payload.RedirectURL}, nil
}

type RegisterParams struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account. The backend answers with JSON or plain text;
// the body is passed back verbatim either way.
func (c *Client) Register(ctx context.Context, params RegisterParams) (string, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/register",
		bytes.NewReader(body), "application/json", "")
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.Upstream("Registration failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errorFromResponse(resp, "Registration failed")
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var asString string
	if json.Unmarshal(raw, &asString) == nil {
		return asString, nil
	}
	return strings.TrimSpace(string(raw)), nil
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context, token string) (*model.UserProfile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/me", nil, "", token)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("Could not fetch profile", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse(resp, "Could not fetch profile")
	}

	var profile model.UserProfile
	if err := decodeJSON(resp, &profile); err != nil {
		return nil, apperrors.Upstream("Could not fetch profile", err)
	}
	return &profile, nil
}

// UpdateProfile applies profile changes and returns the updated profile.
func (c *Client) UpdateProfile(ctx context.Context, token string, params model.UpdateProfileParams) (*model.UserProfile, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPut, "/auth/me",
		bytes.NewReader(body), "application/json", token)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("Could not update profile", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse(resp, "Could not update profile")
	}

	var profile model.UserProfile
	if err := decodeJSON(resp, &profile); err != nil {
		return nil, apperrors.Upstream("Could not update profile", err)
	}
	return &profile, nil
}
