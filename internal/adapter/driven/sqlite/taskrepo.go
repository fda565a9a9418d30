package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TaskStore = (*TaskRepo)(nil)

// TaskRepo is the SQLite implementation of the TaskStore port interface.
type TaskRepo struct {
	db *DB
}

// NewTaskRepo creates a new TaskRepo backed by the given DB.
func NewTaskRepo(db *DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// Create inserts a task.
func (r *TaskRepo) Create(ctx context.Context, t model.Task) error {
	const query = `
		INSERT INTO tasks (id, owner_id, client_id, title, status, priority, due_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		t.ID, t.OwnerID, nullString(t.ClientID), t.Title, string(t.Status), t.Priority,
		formatTime(t.DueAt), formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("create task: client %s: %w", t.ClientID, driven.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// List returns the owner's tasks by priority then due date. An empty status
// matches every task.
func (r *TaskRepo) List(ctx context.Context, ownerID string, status model.TaskStatus) ([]model.Task, error) {
	const query = `
		SELECT id, owner_id, client_id, title, status, priority, due_at, created_at, updated_at
		FROM tasks
		WHERE owner_id = ? AND (? = '' OR status = ?)
		ORDER BY priority DESC, CASE WHEN due_at = '' THEN 1 ELSE 0 END, due_at, created_at`

	rows, err := r.db.Reader.QueryContext(ctx, query, ownerID, string(status), string(status))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var clientID sql.NullString
		var st, dueAt, createdAt, updatedAt string

		if err := rows.Scan(&t.ID, &t.OwnerID, &clientID, &t.Title, &st, &t.Priority,
			&dueAt, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.ClientID = clientID.String
		t.Status = model.TaskStatus(st)

		if t.DueAt, err = parseTime(dueAt); err != nil {
			return nil, fmt.Errorf("parse due_at: %w", err)
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// UpdateStatus sets the status of one of the owner's tasks.
func (r *TaskRepo) UpdateStatus(ctx context.Context, ownerID, taskID string, status model.TaskStatus) error {
	const query = `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND owner_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, string(status), formatTime(time.Now()), taskID, ownerID)
	if err != nil {
		return fmt.Errorf("update task %s: %w", taskID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", taskID, driven.ErrNotFound)
	}
	return nil
}

// CountOpen returns how many of the owner's tasks are not done.
func (r *TaskRepo) CountOpen(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.Reader.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE owner_id = ? AND status != 'done'`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open tasks: %w", err)
	}
	return n, nil
}
