package model

import "time"

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of an onboarding conversation.
type ChatMessage struct {
	ID        string
	SessionID string
	UserID    string
	AgentID   string
	Role      ChatRole
	Content   string
	CreatedAt time.Time
}

// ChatRequest is what the automation webhook receives.
type ChatRequest struct {
	Message   string
	AgentID   string
	Role      ChatRole
	SessionID string
	UserID    string
	UserEmail string
}

// ChatReply is the normalized answer from the automation webhook.
type ChatReply struct {
	Text string
}
