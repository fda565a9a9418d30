package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BlogStore = (*BlogRepo)(nil)

// BlogRepo is the SQLite implementation of the BlogStore port interface.
type BlogRepo struct {
	db *DB
}

// NewBlogRepo creates a new BlogRepo backed by the given DB.
func NewBlogRepo(db *DB) *BlogRepo {
	return &BlogRepo{db: db}
}

const blogColumns = `id, slug, title, body, published, published_at, updated_at`

// Upsert inserts or updates a post by slug. The first publication time is
// kept when a published post is edited.
func (r *BlogRepo) Upsert(ctx context.Context, post model.BlogPost) error {
	const query = `
		INSERT INTO blog_posts (` + blogColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title        = excluded.title,
			body         = excluded.body,
			published    = excluded.published,
			published_at = CASE WHEN blog_posts.published_at != '' THEN blog_posts.published_at ELSE excluded.published_at END,
			updated_at   = excluded.updated_at`

	now := time.Now()
	publishedAt := post.PublishedAt
	if post.Published && publishedAt.IsZero() {
		publishedAt = now
	}
	if !post.Published {
		publishedAt = time.Time{}
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		post.ID, post.Slug, post.Title, post.Body, post.Published, formatTime(publishedAt), formatTime(now))
	if err != nil {
		return fmt.Errorf("upsert blog post %s: %w", post.Slug, err)
	}
	return nil
}

// GetBySlug retrieves a post by slug, published or not.
func (r *BlogRepo) GetBySlug(ctx context.Context, slug string) (model.BlogPost, error) {
	p, err := scanBlogPost(r.db.Reader.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blog_posts WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return model.BlogPost{}, fmt.Errorf("blog post %s: %w", slug, driven.ErrNotFound)
	}
	if err != nil {
		return model.BlogPost{}, fmt.Errorf("get blog post %s: %w", slug, err)
	}
	return p, nil
}

// ListPublished returns up to limit published posts, newest first.
func (r *BlogRepo) ListPublished(ctx context.Context, limit int) ([]model.BlogPost, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Reader.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blog_posts WHERE published = 1 ORDER BY published_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list blog posts: %w", err)
	}
	defer rows.Close()

	var posts []model.BlogPost
	for rows.Next() {
		p, err := scanBlogPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog post: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blog posts: %w", err)
	}
	return posts, nil
}

func scanBlogPost(s scanner) (model.BlogPost, error) {
	var p model.BlogPost
	var publishedAt, updatedAt string

	if err := s.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.Published, &publishedAt, &updatedAt); err != nil {
		return model.BlogPost{}, err
	}

	var err error
	if p.PublishedAt, err = parseTime(publishedAt); err != nil {
		return model.BlogPost{}, fmt.Errorf("parse published_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.BlogPost{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return p, nil
}
