package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chatify/edge-server-go/internal/errors"
	"github.com/chatify/edge-server-go/internal/model"
	"github.com/chatify/edge-server-go/internal/upstream"
)

// recordingSink captures every sink call in order for assertions.
type recordingSink struct {
	events   []string
	messages []model.Message
	loading  []bool
}

func (s *recordingSink) AddMessage(msg model.Message) {
	s.events = append(s.events, "add:"+string(msg.Sender))
	s.messages = append(s.messages, msg)
}

func (s *recordingSink) SetMessages(msgs []model.Message) {
	s.events = append(s.events, "set")
	s.messages = msgs
}

func (s *recordingSink) SetLoading(loading bool) {
	s.events = append(s.events, "loading")
	s.loading = append(s.loading, loading)
}

func TestChatServiceSend(t *testing.T) {
	t.Run("blank input is a no-op", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		svc := NewChatService(upstream.NewClient(server.URL))
		sink := &recordingSink{}

		err := svc.Send(context.Background(), "tok", "7", "   ", sink)
		require.NoError(t, err)
		assert.False(t, called)
		assert.Empty(t, sink.events)
	})

	t.Run("success appends user then bot with loading toggled", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"answer": "hi"}`))
		}))
		defer server.Close()

		svc := NewChatService(upstream.NewClient(server.URL))
		sink := &recordingSink{}

		err := svc.Send(context.Background(), "tok", "7", "hello", sink)
		require.NoError(t, err)

		assert.Equal(t, []string{"add:user", "loading", "add:bot", "loading"}, sink.events)
		assert.Equal(t, []bool{true, false}, sink.loading)
		assert.Equal(t, "hello", sink.messages[0].Text)
		assert.Equal(t, "hi", sink.messages[1].Text)
	})

	t.Run("transport failure becomes a bot message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		svc := NewChatService(upstream.NewClient(server.URL))
		sink := &recordingSink{}

		err := svc.Send(context.Background(), "tok", "7", "hello", sink)
		require.NoError(t, err)

		assert.Equal(t, []string{"add:user", "loading", "add:bot", "loading"}, sink.events)
		assert.Equal(t, []bool{true, false}, sink.loading)
		assert.Equal(t, botErrorText, sink.messages[1].Text)
		assert.Equal(t, model.SenderBot, sink.messages[1].Sender)
	})

	t.Run("rejected session propagates with loading cleared", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		svc := NewChatService(upstream.NewClient(server.URL))
		sink := &recordingSink{}

		err := svc.Send(context.Background(), "tok", "7", "hello", sink)
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
		assert.Equal(t, []bool{true, false}, sink.loading)
	})
}

func TestChatServiceHistory(t *testing.T) {
	t.Run("loads transcript", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"role": "user", "content": "q"}, {"role": "assistant", "content": "a"}]`))
		}))
		defer server.Close()

		svc := NewChatService(upstream.NewClient(server.URL))
		sink := &recordingSink{}

		err := svc.History(context.Background(), "tok", "7", sink)
		require.NoError(t, err)

		assert.Equal(t, []string{"loading", "set", "loading"}, sink.events)
		assert.Equal(t, []bool{true, false}, sink.loading)
		require.Len(t, sink.messages, 2)
	})

	t.Run("fetch failure resolves to empty transcript", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		svc := NewChatService(upstream.NewClient(server.URL))
		sink := &recordingSink{}

		err := svc.History(context.Background(), "tok", "7", sink)
		require.NoError(t, err)

		assert.Equal(t, []string{"loading", "set", "loading"}, sink.events)
		assert.Equal(t, []bool{true, false}, sink.loading)
		assert.Empty(t, sink.messages)
		assert.NotNil(t, sink.messages)
	})
}
