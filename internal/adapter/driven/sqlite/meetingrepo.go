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
var _ driven.MeetingStore = (*MeetingRepo)(nil)

// MeetingRepo is the SQLite implementation of the MeetingStore port interface.
type MeetingRepo struct {
	db *DB
}

// NewMeetingRepo creates a new MeetingRepo backed by the given DB.
func NewMeetingRepo(db *DB) *MeetingRepo {
	return &MeetingRepo{db: db}
}

// Create inserts a meeting.
func (r *MeetingRepo) Create(ctx context.Context, m model.Meeting) error {
	const query = `
		INSERT INTO meetings (id, owner_id, client_id, title, starts_at, duration_minutes, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		m.ID, m.OwnerID, nullString(m.ClientID), m.Title, formatTime(m.StartsAt),
		m.DurationMinutes, m.Location, formatTime(m.CreatedAt),
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("create meeting: client %s: %w", m.ClientID, driven.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}
	return nil
}

// ListUpcoming returns the owner's meetings starting at or after from,
// soonest first.
func (r *MeetingRepo) ListUpcoming(ctx context.Context, ownerID string, from time.Time) ([]model.Meeting, error) {
	const query = `
		SELECT id, owner_id, client_id, title, starts_at, duration_minutes, location, created_at
		FROM meetings WHERE owner_id = ? AND starts_at >= ? ORDER BY starts_at`

	rows, err := r.db.Reader.QueryContext(ctx, query, ownerID, formatTime(from))
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []model.Meeting
	for rows.Next() {
		var m model.Meeting
		var clientID sql.NullString
		var startsAt, createdAt string

		if err := rows.Scan(&m.ID, &m.OwnerID, &clientID, &m.Title, &startsAt,
			&m.DurationMinutes, &m.Location, &createdAt); err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		m.ClientID = clientID.String

		if m.StartsAt, err = parseTime(startsAt); err != nil {
			return nil, fmt.Errorf("parse starts_at: %w", err)
		}
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		meetings = append(meetings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetings: %w", err)
	}
	return meetings, nil
}

// CountUpcoming returns how many of the owner's meetings start at or after from.
func (r *MeetingRepo) CountUpcoming(ctx context.Context, ownerID string, from time.Time) (int, error) {
	var n int
	err := r.db.Reader.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meetings WHERE owner_id = ? AND starts_at >= ?`, ownerID, formatTime(from)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count meetings: %w", err)
	}
	return n, nil
}
