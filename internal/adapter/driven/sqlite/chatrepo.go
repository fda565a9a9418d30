package sqlite

import (
	"context"
	"fmt"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ChatStore = (*ChatRepo)(nil)

// ChatRepo is the SQLite implementation of the ChatStore port interface.
type ChatRepo struct {
	db *DB
}

// NewChatRepo creates a new ChatRepo backed by the given DB.
func NewChatRepo(db *DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// Append stores one chat message.
func (r *ChatRepo) Append(ctx context.Context, msg model.ChatMessage) error {
	const query = `
		INSERT INTO chat_messages (id, session_id, user_id, agent_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		msg.ID, msg.SessionID, msg.UserID, msg.AgentID, string(msg.Role), msg.Content, formatTime(msg.CreatedAt))
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// ListSession returns the user's messages in a session in insertion order.
func (r *ChatRepo) ListSession(ctx context.Context, userID, sessionID string) ([]model.ChatMessage, error) {
	const query = `
		SELECT id, session_id, user_id, agent_id, role, content, created_at
		FROM chat_messages WHERE user_id = ? AND session_id = ? ORDER BY created_at, rowid`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chat session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var msgs []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		var role, createdAt string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &m.AgentID, &role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.Role = model.ChatRole(role)
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		msgs = append(msgs, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return msgs, nil
}
