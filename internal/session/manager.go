package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/chatify/edge-server-go/internal/errors"
	"github.com/chatify/edge-server-go/internal/model"
	"github.com/chatify/edge-server-go/internal/repository"
	"github.com/chatify/edge-server-go/internal/util"
)

// ExpiredMessage is shown on the login screen after a forced logout.
const ExpiredMessage = "Your session has expired or the token is invalid. Please log in again."

// State is the explicit session context handed to every API call site. It
// carries the decrypted upstream bearer token; nothing else reads the token
// from ambient storage.
type State struct {
	ID        string
	Key       string // hash of the gateway cookie token, used for flash messages
	Token     string
	ExpiresAt time.Time
}

// Manager owns the session lifecycle: issue on login, replace on re-login,
// clear on logout or forced logout, expire on local token-expiry detection.
type Manager struct {
	sessions      repository.SessionRepository
	flash         Flash
	encryptionKey string
}

func NewManager(sessions repository.SessionRepository, flash Flash, encryptionKey string) *Manager {
	return &Manager{
		sessions:      sessions,
		flash:         flash,
		encryptionKey: encryptionKey,
	}
}

// Issue creates a session for a freshly issued upstream token and returns
// the opaque cookie token the browser will hold.
func (m *Manager) Issue(ctx context.Context, upstreamToken string) (string, *State, error) {
	if err := Validate(upstreamToken); err != nil {
		return "", nil, err
	}
	expiresAt, err := TokenExpiry(upstreamToken)
	if err != nil {
		return "", nil, apperrors.InvalidToken("Malformed authentication token").WithCause(err)
	}

	cookieToken, err := util.GenerateToken()
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}

	stored := upstreamToken
	if m.encryptionKey != "" {
		if stored, err = util.Encrypt(m.encryptionKey, upstreamToken); err != nil {
			return "", nil, fmt.Errorf("encrypt upstream token: %w", err)
		}
	}

	tokenHash := util.HashToken(cookieToken)
	sess, err := m.sessions.Create(ctx, model.CreateSessionParams{
		TokenHash:     tokenHash,
		UpstreamToken: stored,
		ExpiresAt:     expiresAt,
	})
	if err != nil {
		return "", nil, apperrors.Database(err)
	}

	log.Info().
		Str("sessionId", sess.ID).
		Time("expiresAt", expiresAt).
		Msg("session issued")

	return cookieToken, &State{
		ID:        sess.ID,
		Key:       tokenHash,
		Token:     upstreamToken,
		ExpiresAt: expiresAt,
	}, nil
}

// Refresh replaces the upstream token of an existing session in place, so a
// re-login from a browser that still holds a live cookie overwrites the
// stored token instead of minting a second row. The cookie token, and with
// it the flash key, stay unchanged.
func (m *Manager) Refresh(ctx context.Context, state *State, upstreamToken string) (*State, error) {
	if err := Validate(upstreamToken); err != nil {
		return nil, err
	}
	expiresAt, err := TokenExpiry(upstreamToken)
	if err != nil {
		return nil, apperrors.InvalidToken("Malformed authentication token").WithCause(err)
	}

	stored := upstreamToken
	if m.encryptionKey != "" {
		if stored, err = util.Encrypt(m.encryptionKey, upstreamToken); err != nil {
			return nil, fmt.Errorf("encrypt upstream token: %w", err)
		}
	}

	if err := m.sessions.UpdateToken(ctx, state.ID, stored, expiresAt); err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("sessionId", state.ID).
		Time("expiresAt", expiresAt).
		Msg("session token replaced on re-login")

	return &State{
		ID:        state.ID,
		Key:       state.Key,
		Token:     upstreamToken,
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve maps a cookie token to its session state. An unknown cookie, an
// undecryptable stored token, or a token past its expiry all degrade
// silently to (nil, nil): unauthenticated, never an error. Expired sessions
// are deleted on detection.
func (m *Manager) Resolve(ctx context.Context, cookieToken string) (*State, error) {
	if cookieToken == "" {
		return nil, nil
	}

	tokenHash := util.HashToken(cookieToken)
	sess, err := m.sessions.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if sess == nil {
		return nil, nil
	}

	token := sess.UpstreamToken
	if m.encryptionKey != "" {
		if token, err = util.Decrypt(m.encryptionKey, sess.UpstreamToken); err != nil {
			log.Warn().Str("sessionId", sess.ID).Msg("stored token undecryptable, purging session")
			m.purge(ctx, sess.ID)
			return nil, nil
		}
	}

	if err := Validate(token); err != nil {
		log.Debug().Str("sessionId", sess.ID).Msg("session token expired locally, purging session")
		m.purge(ctx, sess.ID)
		return nil, nil
	}

	return &State{
		ID:        sess.ID,
		Key:       tokenHash,
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// Clear drops a session, e.g. on explicit logout.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	if err := m.sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.Database(err)
	}
	log.Info().Str("sessionId", sessionID).Msg("session cleared")
	return nil
}

// ForceLogout purges the session after an upstream 401 and leaves a one-shot
// message for the next page load. The message, not the purge, is what tells
// the user why they landed back on the login view.
func (m *Manager) ForceLogout(ctx context.Context, state *State, message string) {
	m.purge(ctx, state.ID)

	if message == "" {
		return
	}
	if err := m.flash.Set(ctx, state.Key, message); err != nil {
		log.Error().Err(err).Str("sessionId", state.ID).Msg("failed to store forced logout message")
	}
}

// ConsumeFlash returns and deletes the pending one-shot message, if any.
func (m *Manager) ConsumeFlash(ctx context.Context, key string) string {
	msg, err := m.flash.Consume(ctx, key)
	if err != nil {
		log.Error().Err(err).Msg("failed to consume flash message")
		return ""
	}
	return msg
}

func (m *Manager) purge(ctx context.Context, sessionID string) {
	if err := m.sessions.Delete(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to delete session")
	}
}
