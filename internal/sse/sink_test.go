package sse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatify/edge-server-go/internal/model"
)

type capturePublisher struct {
	sessionIDs []string
	events     []Event
}

func (p *capturePublisher) Publish(ctx context.Context, sessionID string, event Event) error {
	p.sessionIDs = append(p.sessionIDs, sessionID)
	p.events = append(p.events, event)
	return nil
}

func TestSink(t *testing.T) {
	t.Run("AddMessage publishes a message event", func(t *testing.T) {
		pub := &capturePublisher{}
		sink := NewSink(context.Background(), pub, "sess-1")

		sink.AddMessage(model.Message{ID: 1, Text: "hello", Sender: model.SenderUser})

		require.Len(t, pub.events, 1)
		assert.Equal(t, []string{"sess-1"}, pub.sessionIDs)
		assert.Equal(t, EventMessage, pub.events[0].Type)
		assert.JSONEq(t, `{"id":1,"text":"hello","sender":"user"}`, string(pub.events[0].Data))
	})

	t.Run("SetMessages publishes the full transcript", func(t *testing.T) {
		pub := &capturePublisher{}
		sink := NewSink(context.Background(), pub, "sess-1")

		sink.SetMessages([]model.Message{
			{ID: 1, Text: "hi", Sender: model.SenderUser},
			{ID: 2, Text: "hello", Sender: model.SenderBot},
		})

		require.Len(t, pub.events, 1)
		assert.Equal(t, EventMessages, pub.events[0].Type)
		assert.JSONEq(t, `[{"id":1,"text":"hi","sender":"user"},{"id":2,"text":"hello","sender":"bot"}]`, string(pub.events[0].Data))
	})

	t.Run("nil transcript publishes an empty array", func(t *testing.T) {
		pub := &capturePublisher{}
		sink := NewSink(context.Background(), pub, "sess-1")

		sink.SetMessages(nil)

		require.Len(t, pub.events, 1)
		assert.Equal(t, `[]`, string(pub.events[0].Data))
	})

	t.Run("SetLoading publishes the flag", func(t *testing.T) {
		pub := &capturePublisher{}
		sink := NewSink(context.Background(), pub, "sess-1")

		sink.SetLoading(true)
		sink.SetLoading(false)

		require.Len(t, pub.events, 2)
		assert.Equal(t, EventLoading, pub.events[0].Type)
		assert.JSONEq(t, `{"loading":true}`, string(pub.events[0].Data))
		assert.JSONEq(t, `{"loading":false}`, string(pub.events[1].Data))
	})
}
