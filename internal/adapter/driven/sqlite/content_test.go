package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

func TestChatRepo_SessionOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepo(db)
	ctx := context.Background()
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	msgs := []model.ChatMessage{
		{ID: "m1", SessionID: "s1", UserID: "u1", AgentID: "onboarding", Role: model.ChatRoleUser, Content: "hi", CreatedAt: at},
		{ID: "m2", SessionID: "s1", UserID: "u1", AgentID: "onboarding", Role: model.ChatRoleAssistant, Content: "hello", CreatedAt: at},
		{ID: "m3", SessionID: "s2", UserID: "u1", AgentID: "onboarding", Role: model.ChatRoleUser, Content: "other", CreatedAt: at},
		{ID: "m4", SessionID: "s1", UserID: "u2", AgentID: "onboarding", Role: model.ChatRoleUser, Content: "spoof", CreatedAt: at},
	}
	for _, m := range msgs {
		require.NoError(t, repo.Append(ctx, m))
	}

	got, err := repo.ListSession(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, model.ChatRoleAssistant, got[1].Role)
}

func TestBlogRepo_PublishFlow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlogRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.BlogPost{ID: "b1", Slug: "draft", Title: "Draft", Body: "wip"}))
	require.NoError(t, repo.Upsert(ctx, model.BlogPost{ID: "b2", Slug: "launch", Title: "Launch", Body: "# Hello", Published: true}))

	posts, err := repo.ListPublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "launch", posts[0].Slug)
	first := posts[0].PublishedAt
	assert.False(t, first.IsZero())

	require.NoError(t, repo.Upsert(ctx, model.BlogPost{ID: "x", Slug: "launch", Title: "Launch!", Body: "# Hello again", Published: true}))
	post, err := repo.GetBySlug(ctx, "launch")
	require.NoError(t, err)
	assert.Equal(t, "b2", post.ID)
	assert.Equal(t, "Launch!", post.Title)
	assert.Equal(t, first, post.PublishedAt)

	draft, err := repo.GetBySlug(ctx, "draft")
	require.NoError(t, err)
	assert.False(t, draft.Published)
	assert.True(t, draft.PublishedAt.IsZero())

	_, err = repo.GetBySlug(ctx, "missing")
	require.ErrorIs(t, err, driven.ErrNotFound)
}
