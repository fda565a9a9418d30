package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

type mockBlogStore struct {
	posts map[string]model.BlogPost
}

func newMockBlogStore() *mockBlogStore {
	return &mockBlogStore{posts: make(map[string]model.BlogPost)}
}

func (m *mockBlogStore) Upsert(_ context.Context, post model.BlogPost) error {
	if existing, ok := m.posts[post.Slug]; ok {
		post.ID = existing.ID
	}
	if post.Published {
		post.PublishedAt = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	}
	m.posts[post.Slug] = post
	return nil
}

func (m *mockBlogStore) GetBySlug(_ context.Context, slug string) (model.BlogPost, error) {
	p, ok := m.posts[slug]
	if !ok {
		return model.BlogPost{}, driven.ErrNotFound
	}
	return p, nil
}

func (m *mockBlogStore) ListPublished(_ context.Context, limit int) ([]model.BlogPost, error) {
	var out []model.BlogPost
	for _, p := range m.posts {
		if p.Published && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestBlogPublish(t *testing.T) {
	store := newMockBlogStore()
	svc := application.NewBlogService(store)
	ctx := context.Background()

	post, err := svc.Publish(ctx, "Hello World!", "", "# Launch day\n\nWe shipped.", true)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, "Launch day", post.Title)
	assert.True(t, post.Published)

	got, err := svc.Get(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBlogPublish_Validation(t *testing.T) {
	svc := application.NewBlogService(newMockBlogStore())

	tests := []struct {
		name  string
		slug  string
		title string
		body  string
	}{
		{"empty slug", "!!!", "Title", "body"},
		{"empty body", "post", "Title", "   "},
		{"no title or heading", "post", "", "just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Publish(context.Background(), tt.slug, tt.title, tt.body, true)
			require.ErrorIs(t, err, application.ErrInvalidInput)
		})
	}
}

func TestBlogGet_DraftHidden(t *testing.T) {
	store := newMockBlogStore()
	svc := application.NewBlogService(store)
	ctx := context.Background()

	_, err := svc.Publish(ctx, "draft", "Draft", "wip", false)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "draft")
	require.ErrorIs(t, err, driven.ErrNotFound)
}
