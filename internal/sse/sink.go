package sse

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/chatify/edge-server-go/internal/model"
)

// Publisher is the narrow broker surface the sink needs; split out so
// handlers and tests can substitute a capture.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, event Event) error
}

// Sink adapts a broker to the chat service's sink interfaces: every appended
// message and loading toggle becomes an event on the session's stream.
type Sink struct {
	publisher Publisher
	sessionID string
	ctx       context.Context
}

func NewSink(ctx context.Context, publisher Publisher, sessionID string) *Sink {
	return &Sink{publisher: publisher, sessionID: sessionID, ctx: ctx}
}

func (s *Sink) AddMessage(msg model.Message) {
	s.publish(EventMessage, msg)
}

func (s *Sink) SetMessages(msgs []model.Message) {
	if msgs == nil {
		msgs = []model.Message{}
	}
	s.publish(EventMessages, msgs)
}

func (s *Sink) SetLoading(loading bool) {
	s.publish(EventLoading, map[string]bool{"loading": loading})
}

func (s *Sink) publish(eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to marshal sse event")
		return
	}
	if err := s.publisher.Publish(s.ctx, s.sessionID, Event{Type: eventType, Data: payload}); err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to publish sse event")
	}
}
