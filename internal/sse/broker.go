package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/chatify/edge-server-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
)

// Event types pushed to the browser while a chat flow runs.
const (
	EventMessage  = "message"
	EventMessages = "messages"
	EventLoading  = "loading"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	SessionID string
	Events    chan Event
	Done      chan struct{}
}

// sessionHub groups the subscribers of one session with the signal that
// stops its redis subscription once the last of them leaves.
type sessionHub struct {
	clients map[*Client]bool
	done    chan struct{}
}

// Broker fans chat UI events out to every browser tab subscribed to a
// session. Events travel through redis pub/sub so the gateway can run more
// than one instance.
type Broker struct {
	redis    *redisclient.Client
	sessions map[string]*sessionHub
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:    redisClient,
		sessions: make(map[string]*sessionHub),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (b *Broker) Subscribe(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Events:    make(chan Event, 100),
		Done:      make(chan struct{}),
	}

	b.mu.Lock()
	hub, ok := b.sessions[sessionID]
	if !ok {
		hub = &sessionHub{
			clients: make(map[*Client]bool),
			done:    make(chan struct{}),
		}
		b.sessions[sessionID] = hub
		go b.subscribeToRedis(sessionID, hub.done)
	}
	hub.clients[client] = true
	clientCount := len(hub.clients)
	b.mu.Unlock()

	log.Info().
		Str("sessionId", sessionID).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	hub, ok := b.sessions[client.SessionID]
	if !ok {
		return
	}

	delete(hub.clients, client)
	close(client.Done)

	// The last subscriber takes the redis subscription down with it.
	if len(hub.clients) == 0 {
		close(hub.done)
		delete(b.sessions, client.SessionID)
	}

	log.Info().
		Str("sessionId", client.SessionID).
		Int("clientCount", len(hub.clients)).
		Msg("sse client unsubscribed")
}

func (b *Broker) Publish(ctx context.Context, sessionID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := redisclient.EventsChannel(sessionID)
	return b.redis.Publish(ctx, channel, data).Err()
}

func (b *Broker) subscribeToRedis(sessionID string, done <-chan struct{}) {
	channel := redisclient.EventsChannel(sessionID)
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case <-done:
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(sessionID, event)
		}
	}
}

func (b *Broker) broadcast(sessionID string, event Event) {
	b.mu.RLock()
	var clients []*Client
	if hub, ok := b.sessions[sessionID]; ok {
		for client := range hub.clients {
			clients = append(clients, client)
		}
	}
	b.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("sessionId", sessionID).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, hub := range b.sessions {
		for client := range hub.clients {
			close(client.Done)
		}
	}
	b.sessions = make(map[string]*sessionHub)
}

func (b *Broker) ClientCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if hub, ok := b.sessions[sessionID]; ok {
		return len(hub.clients)
	}
	return 0
}
