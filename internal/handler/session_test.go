package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chatify/edge-server-go/internal/middleware"
	"github.com/chatify/edge-server-go/internal/model"
	"github.com/chatify/edge-server-go/internal/session"
	"github.com/chatify/edge-server-go/internal/util"
)

func TestSessionHandlerStatus(t *testing.T) {
	t.Run("no cookie means unauthenticated", func(t *testing.T) {
		repo := &mockSessionRepo{}
		h := NewSessionHandler(session.NewManager(repo, newFakeFlash(), ""))

		req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
		rec := httptest.NewRecorder()
		h.Status(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["authenticated"])
		assert.NotContains(t, resp, "flash")
	})

	t.Run("live session reports authenticated", func(t *testing.T) {
		cookieToken := "cookie-token"
		token := upstreamToken(t)

		repo := &mockSessionRepo{}
		repo.On("FindByTokenHash", mock.Anything, util.HashToken(cookieToken)).Return(&model.Session{
			ID:            "sess-1",
			UpstreamToken: token,
			ExpiresAt:     time.Now().Add(time.Hour),
		}, nil)

		h := NewSessionHandler(session.NewManager(repo, newFakeFlash(), ""))

		req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cookieToken})
		rec := httptest.NewRecorder()
		h.Status(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["authenticated"])
	})

	t.Run("flash survives forced logout and is consumed once", func(t *testing.T) {
		cookieToken := "cookie-token"
		key := util.HashToken(cookieToken)

		repo := &mockSessionRepo{}
		repo.On("FindByTokenHash", mock.Anything, key).Return(nil, nil)

		flash := newFakeFlash()
		flash.messages[key] = session.ExpiredMessage

		h := NewSessionHandler(session.NewManager(repo, flash, ""))

		req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cookieToken})
		rec := httptest.NewRecorder()
		h.Status(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["authenticated"])
		assert.Equal(t, session.ExpiredMessage, resp["flash"])

		// Second read: the message is gone.
		req = httptest.NewRequest(http.MethodGet, "/v1/session", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cookieToken})
		rec = httptest.NewRecorder()
		h.Status(rec, req)

		resp = map[string]any{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotContains(t, resp, "flash")
	})

	t.Run("resolve failure leaves the flash for the next attempt", func(t *testing.T) {
		cookieToken := "cookie-token"
		key := util.HashToken(cookieToken)

		repo := &mockSessionRepo{}
		repo.On("FindByTokenHash", mock.Anything, key).Return(nil, errors.New("connection refused"))

		flash := newFakeFlash()
		flash.messages[key] = session.ExpiredMessage

		h := NewSessionHandler(session.NewManager(repo, flash, ""))

		req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cookieToken})
		rec := httptest.NewRecorder()
		h.Status(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, session.ExpiredMessage, flash.messages[key])
	})
}
