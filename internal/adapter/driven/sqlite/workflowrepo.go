package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.WorkflowStore = (*WorkflowRepo)(nil)

// WorkflowRepo is the SQLite implementation of the WorkflowStore port interface.
type WorkflowRepo struct {
	db *DB
}

// NewWorkflowRepo creates a new WorkflowRepo backed by the given DB.
func NewWorkflowRepo(db *DB) *WorkflowRepo {
	return &WorkflowRepo{db: db}
}

const workflowColumns = `id, slug, title, description, category, required_tier, file_name,
	source_sha, node_count, downloads, created_at, updated_at`

// Upsert inserts a workflow or updates the listing fields of the existing
// row with the same slug. The id, download count and creation time of an
// existing row are kept.
func (r *WorkflowRepo) Upsert(ctx context.Context, wf model.Workflow) (model.Workflow, error) {
	const query = `
		INSERT INTO workflows (` + workflowColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title         = excluded.title,
			description   = excluded.description,
			category      = excluded.category,
			required_tier = excluded.required_tier,
			file_name     = excluded.file_name,
			source_sha    = excluded.source_sha,
			node_count    = excluded.node_count,
			updated_at    = excluded.updated_at`

	tier := wf.RequiredTier
	if !tier.Valid() {
		tier = model.TierFree
	}
	category := wf.Category
	if category == "" {
		category = "general"
	}
	now := formatTime(time.Now())

	_, err := r.db.Writer.ExecContext(ctx, query,
		wf.ID, wf.Slug, wf.Title, wf.Description, category, string(tier), wf.FileName,
		wf.SourceSHA, wf.NodeCount, now, now,
	)
	if err != nil {
		return model.Workflow{}, fmt.Errorf("upsert workflow %s: %w", wf.Slug, err)
	}

	stored, err := scanWorkflow(r.db.Writer.QueryRowContext(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE slug = ?`, wf.Slug))
	if err != nil {
		return model.Workflow{}, fmt.Errorf("reload workflow %s: %w", wf.Slug, err)
	}
	return stored, nil
}

// GetBySlug retrieves a workflow by slug.
func (r *WorkflowRepo) GetBySlug(ctx context.Context, slug string) (model.Workflow, error) {
	wf, err := scanWorkflow(r.db.Reader.QueryRowContext(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Workflow{}, fmt.Errorf("workflow %s: %w", slug, driven.ErrNotFound)
	}
	if err != nil {
		return model.Workflow{}, fmt.Errorf("get workflow %s: %w", slug, err)
	}
	return wf, nil
}

// List returns workflows matching the filter, most downloaded first.
func (r *WorkflowRepo) List(ctx context.Context, filter model.WorkflowFilter) ([]model.Workflow, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.MaxTier != "" {
		var placeholders []string
		for _, t := range model.AllTiers {
			if t.Rank() <= filter.MaxTier.Rank() {
				placeholders = append(placeholders, "?")
				args = append(args, string(t))
			}
		}
		where = append(where, "required_tier IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `SELECT ` + workflowColumns + ` FROM workflows`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY downloads DESC, title`

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []model.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		workflows = append(workflows, wf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflows: %w", err)
	}
	return workflows, nil
}

// ListSourceSHAs maps slug to source SHA for catalog-imported workflows.
func (r *WorkflowRepo) ListSourceSHAs(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Reader.QueryContext(ctx, `SELECT slug, source_sha FROM workflows WHERE source_sha != ''`)
	if err != nil {
		return nil, fmt.Errorf("list workflow shas: %w", err)
	}
	defer rows.Close()

	shas := make(map[string]string)
	for rows.Next() {
		var slug, sha string
		if err := rows.Scan(&slug, &sha); err != nil {
			return nil, fmt.Errorf("scan workflow sha: %w", err)
		}
		shas[slug] = sha
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflow shas: %w", err)
	}
	return shas, nil
}

// IncrementDownloads adds one to the workflow's download counter.
func (r *WorkflowRepo) IncrementDownloads(ctx context.Context, id string) error {
	result, err := r.db.Writer.ExecContext(ctx, `UPDATE workflows SET downloads = downloads + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment downloads %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("workflow %s: %w", id, driven.ErrNotFound)
	}
	return nil
}

func scanWorkflow(s scanner) (model.Workflow, error) {
	var wf model.Workflow
	var tier, createdAt, updatedAt string

	err := s.Scan(&wf.ID, &wf.Slug, &wf.Title, &wf.Description, &wf.Category, &tier, &wf.FileName,
		&wf.SourceSHA, &wf.NodeCount, &wf.Downloads, &createdAt, &updatedAt)
	if err != nil {
		return model.Workflow{}, err
	}
	wf.RequiredTier = model.Tier(tier)

	if wf.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Workflow{}, fmt.Errorf("parse created_at: %w", err)
	}
	if wf.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Workflow{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return wf, nil
}
