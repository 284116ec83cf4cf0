package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/chatify/edge-server-go/internal/errors"
	"github.com/chatify/edge-server-go/internal/model"
	"github.com/chatify/edge-server-go/internal/upstream"
)

const botErrorText = "Failed to get a response."

// MessageSink receives the view-facing effects of a message flow: appended
// messages and loading-flag toggles.
type MessageSink interface {
	AddMessage(msg model.Message)
	SetLoading(loading bool)
}

// HistorySink receives a full transcript replacement plus loading toggles.
type HistorySink interface {
	SetMessages(msgs []model.Message)
	SetLoading(loading bool)
}

type ChatService struct {
	upstream *upstream.Client
}

func NewChatService(client *upstream.Client) *ChatService {
	return &ChatService{upstream: client}
}

// Send runs the optimistic-then-confirmed message flow: the user's message
// is appended before the network call, the loading flag is raised, and the
// bot's reply (or a synthetic error message) is appended afterwards. The
// loading flag is lowered exactly once regardless of outcome. Blank input
// performs no network call and touches no sink.
//
// A non-nil return means the session was rejected upstream; every other
// failure is absorbed into a visible bot message so the conversation view
// never appears to hang.
func (s *ChatService) Send(ctx context.Context, token, chatID, input string, sink MessageSink) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	sink.AddMessage(model.Message{
		ID:     time.Now().UnixMilli(),
		Text:   input,
		Sender: model.SenderUser,
	})
	sink.SetLoading(true)
	defer sink.SetLoading(false)

	answer, err := s.upstream.SendMessage(ctx, token, chatID, input)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			return err
		}
		log.Warn().Err(err).Str("chatId", chatID).Msg("send message failed, surfacing error as bot message")
		sink.AddMessage(botMessage(botErrorText))
		return nil
	}

	sink.AddMessage(botMessage(answer))
	return nil
}

// History loads a conversation transcript into the sink. Failures resolve
// to an empty list rather than failing the view; the loading flag is
// cleared exactly once either way.
func (s *ChatService) History(ctx context.Context, token, chatID string, sink HistorySink) error {
	sink.SetLoading(true)
	defer sink.SetLoading(false)

	messages, err := s.upstream.History(ctx, token, chatID)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			return err
		}
		log.Warn().Err(err).Str("chatId", chatID).Msg("history fetch failed, resolving to empty transcript")
		sink.SetMessages([]model.Message{})
		return nil
	}

	sink.SetMessages(messages)
	return nil
}

// Start opens a new conversation upstream and returns its ID.
func (s *ChatService) Start(ctx context.Context, token string) (string, error) {
	return s.upstream.StartChat(ctx, token)
}

// List returns the user's conversations. Failures resolve to an empty list
// unless the session was rejected.
func (s *ChatService) List(ctx context.Context, token string) ([]model.ChatSummary, error) {
	chats, err := s.upstream.ListChats(ctx, token)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []model.ChatSummary{}
	}
	return chats, nil
}

// Delete removes a conversation. Errors propagate so the caller can show a
// descriptive failure.
func (s *ChatService) Delete(ctx context.Context, token, chatID string) error {
	return s.upstream.DeleteChat(ctx, token, chatID)
}

// Rename retitles a conversation. Errors propagate.
func (s *ChatService) Rename(ctx context.Context, token, chatID, title string) error {
	return s.upstream.RenameChat(ctx, token, chatID, title)
}

func botMessage(text string) model.Message {
	return model.Message{
		ID:     time.Now().UnixMilli() + 1,
		Text:   text,
		Sender: model.SenderBot,
	}
}
