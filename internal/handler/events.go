package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chatify/edge-server-go/internal/middleware"
	"github.com/chatify/edge-server-go/internal/sse"
)

// EventStream is the broker surface the handler needs to attach a client
// to a session's event feed.
type EventStream interface {
	Subscribe(sessionID string) *sse.Client
	Unsubscribe(client *sse.Client)
}

type EventsHandler struct {
	broker EventStream
}

func NewEventsHandler(broker EventStream) *EventsHandler {
	return &EventsHandler{broker: broker}
}

// GET /v1/events
//
// Streams chat events (messages, transcript replacements, loading toggles)
// for the caller's session.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSession(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe(state.ID)
	defer h.broker.Unsubscribe(client)

	log.Info().Str("sessionId", state.ID).Msg("sse connection established")

	if err := h.sendRawEvent(w, flusher, sse.Event{Type: "connected", Data: []byte(`{}`)}); err != nil {
		return
	}

	ctx := r.Context()
	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("sessionId", state.ID).Msg("sse connection closed by client")
			return

		case <-client.Done:
			log.Info().Str("sessionId", state.ID).Msg("sse connection closed by broker")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().Str("sessionId", state.ID).Msg("heartbeat failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
