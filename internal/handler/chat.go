package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/chatify/edge-server-go/internal/errors"
	"github.com/chatify/edge-server-go/internal/middleware"
	"github.com/chatify/edge-server-go/internal/model"
	"github.com/chatify/edge-server-go/internal/service"
	"github.com/chatify/edge-server-go/internal/session"
	"github.com/chatify/edge-server-go/internal/sse"
)

type ChatHandler struct {
	chats    *service.ChatService
	manager  *session.Manager
	notifier sse.Publisher
}

func NewChatHandler(chats *service.ChatService, manager *session.Manager, notifier sse.Publisher) *ChatHandler {
	return &ChatHandler{
		chats:    chats,
		manager:  manager,
		notifier: notifier,
	}
}

func (h *ChatHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/start", h.Start)
	r.Get("/user", h.List)
	r.Post("/{chatID}/message", h.Send)
	r.Get("/{chatID}/history", h.History)
	r.Delete("/{chatID}", h.Delete)
	r.Put("/{chatID}/rename", h.Rename)

	return r
}

// POST /v1/chat/start
func (h *ChatHandler) Start(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())

	chatID, err := h.chats.Start(r.Context(), state.Token)
	if err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"chat_id": chatID})
}

// GET /v1/chat/user
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())

	chats, err := h.chats.List(r.Context(), state.Token)
	if err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, chats)
}

// POST /v1/chat/{chatID}/message
//
// The body is the raw message text. Progress reaches the browser over the
// SSE stream; the response only acknowledges acceptance.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())
	chatID := chi.URLParam(r, "chatID")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, apperrors.InvalidInput("body", "unreadable"))
		return
	}

	input := string(body)
	if strings.TrimSpace(input) == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"accepted": false})
		return
	}

	sink := sse.NewSink(r.Context(), h.notifier, state.ID)
	if err := h.chats.Send(r.Context(), state.Token, chatID, input, sink); err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

// GET /v1/chat/{chatID}/history
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())
	chatID := chi.URLParam(r, "chatID")

	sink := sse.NewSink(r.Context(), h.notifier, state.ID)
	collector := &collectingSink{HistorySink: sink}

	if err := h.chats.History(r.Context(), state.Token, chatID, collector); err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, collector.messages)
}

// DELETE /v1/chat/{chatID}
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())
	chatID := chi.URLParam(r, "chatID")

	if err := h.chats.Delete(r.Context(), state.Token, chatID); err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat deleted"})
}

type renameRequest struct {
	Title string `json:"title"`
}

// PUT /v1/chat/{chatID}/rename
func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())
	chatID := chi.URLParam(r, "chatID")

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, apperrors.MissingRequired("Title"))
		return
	}

	if err := h.chats.Rename(r.Context(), state.Token, chatID, req.Title); err != nil {
		respondServiceError(w, r, h.manager, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat renamed"})
}

// collectingSink mirrors history to the SSE stream while keeping a copy for
// the HTTP response.
type collectingSink struct {
	service.HistorySink
	messages []model.Message
}

func (c *collectingSink) SetMessages(msgs []model.Message) {
	if msgs == nil {
		msgs = []model.Message{}
	}
	c.messages = msgs
	c.HistorySink.SetMessages(msgs)
}
