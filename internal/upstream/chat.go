package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/chatify/edge-server-go/internal/errors"
	"github.com/chatify/edge-server-go/internal/model"
)

const defaultBotAnswer = "No response."

// StartChat opens a new conversation and returns its identifier as a string.
func (c *Client) StartChat(ctx context.Context, token string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/chat/start", nil, "", token)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.Upstream("Could not start chat", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return "", err
	}

	var payload struct {
		ChatID json.Number `json:"chat_id"`
	}
	if decodeErr := decodeJSON(resp, &payload); decodeErr != nil ||
		resp.StatusCode < 200 || resp.StatusCode >= 300 || payload.ChatID.String() == "" {
		return "", apperrors.Upstream("Invalid response from server", nil)
	}

	return payload.ChatID.String(), nil
}

// SendMessage posts the user's input as a text/plain body and returns the
// bot's answer. Absorbing transport failures into a visible bot message is
// the caller's job; this method only reports them.
func (c *Client) SendMessage(ctx context.Context, token, chatID, input string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/chat/"+url.PathEscape(chatID)+"/message",
		strings.NewReader(input), "text/plain", token)
	if err != nil {
		return "", err
	}

	resp, err := c.chat.Do(req)
	if err != nil {
		return "", apperrors.Upstream("Could not get a response", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return "", err
	}

	var payload struct {
		Answer string `json:"answer"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return "", apperrors.Upstream("Could not get a response", err)
	}
	if payload.Answer == "" {
		return defaultBotAnswer, nil
	}
	return payload.Answer, nil
}

// History fetches the conversation transcript. The backend keys entries by
// role/content; they are remapped to the sender/text shape the client
// renders, with client-generated time-based ids.
func (c *Client) History(ctx context.Context, token, chatID string) ([]model.Message, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/chat/"+url.PathEscape(chatID)+"/history", nil, "", token)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("Could not fetch history", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return nil, err
	}

	var entries []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := decodeJSON(resp, &entries); err != nil {
		return nil, apperrors.Upstream("Could not fetch history", err)
	}

	base := time.Now().UnixMilli()
	messages := make([]model.Message, 0, len(entries))
	for i, entry := range entries {
		sender := model.SenderBot
		if entry.Role == "user" {
			sender = model.SenderUser
		}
		messages = append(messages, model.Message{
			ID:     base + int64(i),
			Text:   entry.Content,
			Sender: sender,
		})
	}
	return messages, nil
}

// DeleteChat removes a conversation.
func (c *Client) DeleteChat(ctx context.Context, token, chatID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/chat/"+url.PathEscape(chatID), nil, "", token)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Upstream("Could not delete chat", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp, "Could not delete chat")
	}
	return nil
}

// RenameChat updates a conversation title via a text/plain PUT.
func (c *Client) RenameChat(ctx context.Context, token, chatID, title string) error {
	req, err := c.newRequest(ctx, http.MethodPut, "/chat/"+url.PathEscape(chatID)+"/rename",
		strings.NewReader(title), "text/plain", token)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Upstream("Could not rename chat", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp, "Could not rename chat")
	}
	return nil
}

// ListChats returns the user's conversations.
func (c *Client) ListChats(ctx context.Context, token string) ([]model.ChatSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/chat/user", nil, "", token)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("Could not fetch chats", err)
	}
	defer resp.Body.Close()

	if err := checkUnauthorized(resp); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse(resp, "Could not fetch chats")
	}

	var chats []model.ChatSummary
	if err := decodeJSON(resp, &chats); err != nil {
		return nil, fmt.Errorf("decode chats: %w", err)
	}
	return chats, nil
}
