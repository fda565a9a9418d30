package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

const defaultBlogPageSize = 20

// BlogService publishes and serves markdown blog posts.
type BlogService struct {
	blogStore driven.BlogStore
}

// NewBlogService creates a BlogService.
func NewBlogService(blogStore driven.BlogStore) *BlogService {
	return &BlogService{blogStore: blogStore}
}

// Publish creates or replaces the post at slug. An empty title falls back
// to the first markdown heading of body.
func (s *BlogService) Publish(ctx context.Context, slug, title, body string, published bool) (model.BlogPost, error) {
	slug = Slugify(slug)
	if slug == "" {
		return model.BlogPost{}, invalid("slug is required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return model.BlogPost{}, invalid("body is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		return model.BlogPost{}, invalid("title is required")
	}

	post := model.BlogPost{
		ID:        uuid.NewString(),
		Slug:      slug,
		Title:     title,
		Body:      body,
		Published: published,
	}
	if err := s.blogStore.Upsert(ctx, post); err != nil {
		return model.BlogPost{}, fmt.Errorf("publish post %s: %w", slug, err)
	}

	stored, err := s.blogStore.GetBySlug(ctx, slug)
	if err != nil {
		return model.BlogPost{}, fmt.Errorf("reload post %s: %w", slug, err)
	}
	return stored, nil
}

// List returns the most recent published posts.
func (s *BlogService) List(ctx context.Context) ([]model.BlogPost, error) {
	posts, err := s.blogStore.ListPublished(ctx, defaultBlogPageSize)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Get returns a published post. Drafts are reported as not found.
func (s *BlogService) Get(ctx context.Context, slug string) (model.BlogPost, error) {
	post, err := s.blogStore.GetBySlug(ctx, slug)
	if err != nil {
		return model.BlogPost{}, fmt.Errorf("get post %s: %w", slug, err)
	}
	if !post.Published {
		return model.BlogPost{}, fmt.Errorf("post %s: %w", slug, driven.ErrNotFound)
	}
	return post, nil
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
