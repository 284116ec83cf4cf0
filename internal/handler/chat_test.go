package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatify/edge-server-go/internal/service"
	"github.com/chatify/edge-server-go/internal/session"
	"github.com/chatify/edge-server-go/internal/sse"
	"github.com/chatify/edge-server-go/internal/upstream"
)

type fakePublisher struct {
	events []sse.Event
}

func (p *fakePublisher) Publish(ctx context.Context, sessionID string, event sse.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) types() []string {
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func chatRequest(method, target, body string, state *session.State) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return withSession(req, state)
}

func newChatHandler(backendURL string, publisher sse.Publisher) (*ChatHandler, *mockSessionRepo) {
	repo := &mockSessionRepo{}
	manager := session.NewManager(repo, newFakeFlash(), "")
	chats := service.NewChatService(upstream.NewClient(backendURL))
	return NewChatHandler(chats, manager, publisher), repo
}

func serveChat(h *ChatHandler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r := chi.NewRouter()
	r.Mount("/v1/chat", h.Routes())
	r.ServeHTTP(rec, req)
	return rec
}

func TestChatHandlerStart(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/start", r.URL.Path)
		w.Write([]byte(`{"chat_id": 42}`))
	}))
	defer backend.Close()

	h, _ := newChatHandler(backend.URL, &fakePublisher{})
	state := &session.State{ID: "sess-1", Token: "tok"}

	rec := serveChat(h, chatRequest(http.MethodPost, "/v1/chat/start", "", state))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "42", resp["chat_id"])
}

func TestChatHandlerSend(t *testing.T) {
	t.Run("publishes flow events and acknowledges", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"answer": "hi"}`))
		}))
		defer backend.Close()

		publisher := &fakePublisher{}
		h, _ := newChatHandler(backend.URL, publisher)
		state := &session.State{ID: "sess-1", Token: "tok"}

		rec := serveChat(h, chatRequest(http.MethodPost, "/v1/chat/7/message", "hello", state))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"accepted":true`)

		assert.Equal(t, []string{
			sse.EventMessage, sse.EventLoading, sse.EventMessage, sse.EventLoading,
		}, publisher.types())
	})

	t.Run("blank input publishes nothing", func(t *testing.T) {
		backendCalled := false
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			backendCalled = true
		}))
		defer backend.Close()

		publisher := &fakePublisher{}
		h, _ := newChatHandler(backend.URL, publisher)
		state := &session.State{ID: "sess-1", Token: "tok"}

		rec := serveChat(h, chatRequest(http.MethodPost, "/v1/chat/7/message", "   ", state))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"accepted":false`)
		assert.Empty(t, publisher.events)
		assert.False(t, backendCalled)
	})
}

func TestChatHandlerHistory(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/7/history", r.URL.Path)
		w.Write([]byte(`[{"role": "user", "content": "q"}]`))
	}))
	defer backend.Close()

	publisher := &fakePublisher{}
	h, _ := newChatHandler(backend.URL, publisher)
	state := &session.State{ID: "sess-1", Token: "tok"}

	rec := serveChat(h, chatRequest(http.MethodGet, "/v1/chat/7/history", "", state))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"q"`)
	assert.Equal(t, []string{sse.EventLoading, sse.EventMessages, sse.EventLoading}, publisher.types())
}

func TestChatHandlerDelete(t *testing.T) {
	t.Run("propagates backend failure", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "Could not delete"}`))
		}))
		defer backend.Close()

		h, _ := newChatHandler(backend.URL, &fakePublisher{})
		state := &session.State{ID: "sess-1", Token: "tok"}

		rec := serveChat(h, chatRequest(http.MethodDelete, "/v1/chat/7", "", state))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "Could not delete")
	})
}
