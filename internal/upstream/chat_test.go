package upstream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chatify/edge-server-go/internal/errors"
	"github.com/chatify/edge-server-go/internal/model"
)

func TestStartChat(t *testing.T) {
	t.Run("numeric chat id becomes string", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/chat/start", r.URL.Path)
			w.Write([]byte(`{"chat_id": 42}`))
		}))
		defer server.Close()

		chatID, err := NewClient(server.URL).StartChat(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "42", chatID)
	})

	t.Run("string chat id passes through", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"chat_id": "abc"}`))
		}))
		defer server.Close()

		chatID, err := NewClient(server.URL).StartChat(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "abc", chatID)
	})

	t.Run("missing chat id rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).StartChat(context.Background(), "tok")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid response from server")
	})
}

func TestSendMessage(t *testing.T) {
	t.Run("posts plain text and returns answer", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/7/message", r.URL.Path)
			assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "hello", string(body))
			w.Write([]byte(`{"answer": "hi there"}`))
		}))
		defer server.Close()

		answer, err := NewClient(server.URL).SendMessage(context.Background(), "tok", "7", "hello")
		require.NoError(t, err)
		assert.Equal(t, "hi there", answer)
	})

	t.Run("empty answer falls back to default", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		answer, err := NewClient(server.URL).SendMessage(context.Background(), "tok", "7", "hello")
		require.NoError(t, err)
		assert.Equal(t, defaultBotAnswer, answer)
	})

	t.Run("401 surfaces unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := NewClient(server.URL).SendMessage(context.Background(), "tok", "7", "hello")
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
	})
}

func TestHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/7/history", r.URL.Path)
		w.Write([]byte(`[
			{"role": "user", "content": "question"},
			{"role": "assistant", "content": "answer"}
		]`))
	}))
	defer server.Close()

	messages, err := NewClient(server.URL).History(context.Background(), "tok", "7")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, model.SenderUser, messages[0].Sender)
	assert.Equal(t, "question", messages[0].Text)
	assert.Equal(t, model.SenderBot, messages[1].Sender)
	assert.Equal(t, "answer", messages[1].Text)
	assert.Greater(t, messages[1].ID, messages[0].ID)
}

func TestRenameChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/chat/7/rename", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "New title", string(body))
	}))
	defer server.Close()

	err := NewClient(server.URL).RenameChat(context.Background(), "tok", "7", "New title")
	assert.NoError(t, err)
}

func TestListChats(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/user", r.URL.Path)
			w.Write([]byte(`[{"id": "1", "title": "First"}]`))
		}))
		defer server.Close()

		chats, err := NewClient(server.URL).ListChats(context.Background(), "tok")
		require.NoError(t, err)
		require.Len(t, chats, 1)
		assert.Equal(t, "First", chats[0].Title)
	})

	t.Run("server error propagates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := NewClient(server.URL).ListChats(context.Background(), "tok")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeUpstream, apperrors.GetCode(err))
	})

	t.Run("forbidden maps to the forbidden code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": "Not your chat"}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).ListChats(context.Background(), "tok")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
		assert.Contains(t, err.Error(), "Not your chat")
	})
}
