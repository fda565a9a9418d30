package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ClientStore = (*ClientRepo)(nil)

// ClientRepo is the SQLite implementation of the ClientStore port interface.
type ClientRepo struct {
	db *DB
}

// NewClientRepo creates a new ClientRepo backed by the given DB.
func NewClientRepo(db *DB) *ClientRepo {
	return &ClientRepo{db: db}
}

const clientColumns = `id, owner_id, name, company, email, status, created_at`

// Create inserts a client. The client_timeline_after_insert trigger adds the
// default timeline phases in the same statement.
func (r *ClientRepo) Create(ctx context.Context, c model.Client) error {
	const query = `INSERT INTO clients (` + clientColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		c.ID, c.OwnerID, c.Name, c.Company, c.Email, c.Status, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("create client %s: %w", c.Name, err)
	}
	return nil
}

// Get retrieves one of the owner's clients.
func (r *ClientRepo) Get(ctx context.Context, ownerID, clientID string) (model.Client, error) {
	c, err := scanClient(r.db.Reader.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ? AND owner_id = ?`, clientID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Client{}, fmt.Errorf("client %s: %w", clientID, driven.ErrNotFound)
	}
	if err != nil {
		return model.Client{}, fmt.Errorf("get client %s: %w", clientID, err)
	}
	return c, nil
}

// List returns the owner's clients, newest first.
func (r *ClientRepo) List(ctx context.Context, ownerID string) ([]model.Client, error) {
	rows, err := r.db.Reader.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE owner_id = ? ORDER BY created_at DESC, name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

// Count returns how many clients the owner has.
func (r *ClientRepo) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients WHERE owner_id = ?`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

// Timeline returns the client's phases in order.
func (r *ClientRepo) Timeline(ctx context.Context, clientID string) ([]model.TimelinePhase, error) {
	const query = `SELECT id, client_id, name, position, status FROM timeline_phases WHERE client_id = ? ORDER BY position`

	rows, err := r.db.Reader.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list timeline %s: %w", clientID, err)
	}
	defer rows.Close()

	var phases []model.TimelinePhase
	for rows.Next() {
		var p model.TimelinePhase
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Position, &p.Status); err != nil {
			return nil, fmt.Errorf("scan timeline phase: %w", err)
		}
		phases = append(phases, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline phases: %w", err)
	}
	return phases, nil
}

func scanClient(s scanner) (model.Client, error) {
	var c model.Client
	var createdAt string

	if err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Company, &c.Email, &c.Status, &createdAt); err != nil {
		return model.Client{}, err
	}

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Client{}, fmt.Errorf("parse created_at: %w", err)
	}
	return c, nil
}
