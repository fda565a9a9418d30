package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProjectStore = (*ProjectRepo)(nil)

// ProjectRepo is the SQLite implementation of the ProjectStore port interface.
// Skills are stored as a JSON array.
type ProjectRepo struct {
	db *DB
}

// NewProjectRepo creates a new ProjectRepo backed by the given DB.
func NewProjectRepo(db *DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

const projectColumns = `id, owner_id, title, description, budget_cents, skills, status, created_at, updated_at`

// Create inserts a project.
func (r *ProjectRepo) Create(ctx context.Context, p model.Project) error {
	const query = `INSERT INTO projects (` + projectColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		p.ID, p.OwnerID, p.Title, p.Description, p.BudgetCents, string(skillsJSON),
		string(p.Status), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create project %s: %w", p.Title, err)
	}
	return nil
}

// Get retrieves a project by id.
func (r *ProjectRepo) Get(ctx context.Context, projectID string) (model.Project, error) {
	p, err := scanProject(r.db.Reader.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %s: %w", projectID, driven.ErrNotFound)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("get project %s: %w", projectID, err)
	}
	return p, nil
}

// ListByStatus returns projects in the status, newest first.
func (r *ProjectRepo) ListByStatus(ctx context.Context, status model.ProjectStatus) ([]model.Project, error) {
	return r.list(ctx, `SELECT `+projectColumns+` FROM projects WHERE status = ? ORDER BY created_at DESC`, string(status))
}

// ListByOwner returns the owner's projects, newest first.
func (r *ProjectRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Project, error) {
	return r.list(ctx, `SELECT `+projectColumns+` FROM projects WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
}

func (r *ProjectRepo) list(ctx context.Context, query string, args ...any) ([]model.Project, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func scanProject(s scanner) (model.Project, error) {
	var p model.Project
	var skills, status, createdAt, updatedAt string

	err := s.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.BudgetCents, &skills, &status, &createdAt, &updatedAt)
	if err != nil {
		return model.Project{}, err
	}
	p.Status = model.ProjectStatus(status)

	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil {
		return model.Project{}, fmt.Errorf("unmarshal skills: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Project{}, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Project{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return p, nil
}
