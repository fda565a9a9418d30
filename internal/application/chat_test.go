package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

type mockAutomationClient struct {
	requests []model.ChatRequest
	reply    string
	err      error
}

func (m *mockAutomationClient) Send(_ context.Context, req model.ChatRequest) (model.ChatReply, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return model.ChatReply{}, m.err
	}
	return model.ChatReply{Text: m.reply}, nil
}

type mockChatStore struct {
	messages []model.ChatMessage
}

func (m *mockChatStore) Append(_ context.Context, msg model.ChatMessage) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockChatStore) ListSession(_ context.Context, userID, sessionID string) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, msg := range m.messages {
		if msg.UserID == userID && msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func TestChatSend(t *testing.T) {
	client := &mockAutomationClient{reply: "Welcome aboard"}
	store := &mockChatStore{}
	svc := application.NewChatService(client, store)
	id := model.Identity{UserID: "u1", Email: "a@example.com"}

	res, err := svc.Send(context.Background(), id, application.ChatInput{Message: "  hello  "})
	require.NoError(t, err)
	assert.Equal(t, "Welcome aboard", res.Reply)
	assert.NotEmpty(t, res.SessionID)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "hello", req.Message)
	assert.Equal(t, application.DefaultChatAgent, req.AgentID)
	assert.Equal(t, res.SessionID, req.SessionID)
	assert.Equal(t, "a@example.com", req.UserEmail)

	history, err := svc.History(context.Background(), id, res.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.ChatRoleUser, history[0].Role)
	assert.Equal(t, model.ChatRoleAssistant, history[1].Role)

	// Another user cannot read the session.
	other, err := svc.History(context.Background(), model.Identity{UserID: "u2"}, res.SessionID)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestChatSend_Validation(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"empty", ""},
		{"whitespace only", " \n\t "},
		{"too long", strings.Repeat("é", application.MaxChatMessageRunes+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockAutomationClient{}
			svc := application.NewChatService(client, &mockChatStore{})

			_, err := svc.Send(context.Background(), model.Identity{UserID: "u1"}, application.ChatInput{Message: tt.message})
			require.ErrorIs(t, err, application.ErrInvalidInput)
			assert.Empty(t, client.requests)
		})
	}
}

func TestChatSend_MaxLengthAccepted(t *testing.T) {
	svc := application.NewChatService(&mockAutomationClient{reply: "ok"}, &mockChatStore{})

	_, err := svc.Send(context.Background(), model.Identity{UserID: "u1"},
		application.ChatInput{Message: strings.Repeat("é", application.MaxChatMessageRunes)})
	require.NoError(t, err)
}

func TestChatSend_NotConfigured(t *testing.T) {
	svc := application.NewChatService(nil, &mockChatStore{})

	_, err := svc.Send(context.Background(), model.Identity{UserID: "u1"}, application.ChatInput{Message: "hi"})
	require.ErrorIs(t, err, driven.ErrNotConfigured)
}

func TestChatSend_UpstreamError(t *testing.T) {
	client := &mockAutomationClient{err: errors.New("upstream 502")}
	store := &mockChatStore{}
	svc := application.NewChatService(client, store)

	_, err := svc.Send(context.Background(), model.Identity{UserID: "u1"},
		application.ChatInput{Message: "hi", SessionID: "s1", AgentID: "sales"})
	require.Error(t, err)
	assert.Equal(t, "sales", client.requests[0].AgentID)
	require.Len(t, store.messages, 1)
	assert.Equal(t, model.ChatRoleUser, store.messages[0].Role)
}
