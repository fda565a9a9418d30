package driven

import (
	"context"

	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// ChatStore defines the driven port for onboarding chat transcripts.
type ChatStore interface {
	Append(ctx context.Context, msg model.ChatMessage) error
	// ListSession returns the user's messages in the session, oldest first.
	ListSession(ctx context.Context, userID, sessionID string) ([]model.ChatMessage, error)
}

// BlogStore defines the driven port for blog posts.
type BlogStore interface {
	Upsert(ctx context.Context, post model.BlogPost) error
	GetBySlug(ctx context.Context, slug string) (model.BlogPost, error)
	ListPublished(ctx context.Context, limit int) ([]model.BlogPost, error)
}
