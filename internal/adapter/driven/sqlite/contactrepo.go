package sqlite

import (
	"context"
	"fmt"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ContactStore = (*ContactRepo)(nil)

// ContactRepo is the SQLite implementation of the ContactStore port interface.
type ContactRepo struct {
	db *DB
}

// NewContactRepo creates a new ContactRepo backed by the given DB.
func NewContactRepo(db *DB) *ContactRepo {
	return &ContactRepo{db: db}
}

// Add inserts a contact. A duplicate (owner, email) pair returns
// driven.ErrAlreadyExists.
func (r *ContactRepo) Add(ctx context.Context, c model.Contact) error {
	const query = `INSERT INTO contacts (id, owner_id, email, name, segment, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query, c.ID, c.OwnerID, c.Email, c.Name, c.Segment, formatTime(c.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("add contact %s: %w", c.Email, driven.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("add contact %s: %w", c.Email, err)
	}
	return nil
}

// List returns the owner's contacts ordered by email. An empty segment
// matches every contact.
func (r *ContactRepo) List(ctx context.Context, ownerID, segment string) ([]model.Contact, error) {
	const query = `
		SELECT id, owner_id, email, name, segment, created_at
		FROM contacts WHERE owner_id = ? AND (? = '' OR segment = ?) ORDER BY email`

	rows, err := r.db.Reader.QueryContext(ctx, query, ownerID, segment, segment)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		var createdAt string
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Email, &c.Name, &c.Segment, &createdAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		contacts = append(contacts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

// Count returns how many contacts the owner has.
func (r *ContactRepo) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}
