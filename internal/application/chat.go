package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

const (
	// MaxChatMessageRunes bounds a single user message.
	MaxChatMessageRunes = 4000
	// DefaultChatAgent is used when the caller does not name an agent.
	DefaultChatAgent = "onboarding"
)

// ChatInput is a user message submitted to the onboarding assistant.
type ChatInput struct {
	Message   string
	AgentID   string
	SessionID string
}

// ChatResult is the assistant's answer plus the session it belongs to.
type ChatResult struct {
	SessionID string
	Reply     string
}

// ChatService proxies onboarding chat messages to the automation webhook and
// keeps a transcript per session.
type ChatService struct {
	client    driven.AutomationClient
	chatStore driven.ChatStore
	now       func() time.Time
}

// NewChatService creates a ChatService. client may be nil when the automation
// webhook is not configured.
func NewChatService(client driven.AutomationClient, chatStore driven.ChatStore) *ChatService {
	return &ChatService{
		client:    client,
		chatStore: chatStore,
		now:       time.Now,
	}
}

// Send validates the message, records it, forwards it to the automation
// webhook and records the reply.
func (s *ChatService) Send(ctx context.Context, id model.Identity, in ChatInput) (ChatResult, error) {
	if s.client == nil {
		return ChatResult{}, driven.ErrNotConfigured
	}

	message := strings.TrimSpace(in.Message)
	if message == "" {
		return ChatResult{}, invalid("message is required")
	}
	if utf8.RuneCountInString(message) > MaxChatMessageRunes {
		return ChatResult{}, invalid("message exceeds %d characters", MaxChatMessageRunes)
	}

	agentID := strings.TrimSpace(in.AgentID)
	if agentID == "" {
		agentID = DefaultChatAgent
	}
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	userMsg := model.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    id.UserID,
		AgentID:   agentID,
		Role:      model.ChatRoleUser,
		Content:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.chatStore.Append(ctx, userMsg); err != nil {
		return ChatResult{}, fmt.Errorf("append chat message: %w", err)
	}

	reply, err := s.client.Send(ctx, model.ChatRequest{
		Message:   message,
		AgentID:   agentID,
		Role:      model.ChatRoleUser,
		SessionID: sessionID,
		UserID:    id.UserID,
		UserEmail: id.Email,
	})
	if err != nil {
		return ChatResult{}, fmt.Errorf("send chat message: %w", err)
	}

	replyMsg := model.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    id.UserID,
		AgentID:   agentID,
		Role:      model.ChatRoleAssistant,
		Content:   reply.Text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.chatStore.Append(ctx, replyMsg); err != nil {
		// The user already has the answer; losing the transcript line is not fatal.
		slog.Error("append chat reply failed", "session", sessionID, "error", err)
	}

	return ChatResult{SessionID: sessionID, Reply: reply.Text}, nil
}

// History returns the caller's messages in a session, oldest first.
func (s *ChatService) History(ctx context.Context, id model.Identity, sessionID string) ([]model.ChatMessage, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, invalid("session id is required")
	}
	msgs, err := s.chatStore.ListSession(ctx, id.UserID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chat session %s: %w", sessionID, err)
	}
	return msgs, nil
}
