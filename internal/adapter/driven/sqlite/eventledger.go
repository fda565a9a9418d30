package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EventLedger = (*EventLedger)(nil)

// EventLedger records processed payment-event ids in processed_events.
type EventLedger struct {
	db *DB
}

// NewEventLedger creates a new EventLedger backed by the given DB.
func NewEventLedger(db *DB) *EventLedger {
	return &EventLedger{db: db}
}

// Claim inserts the event id. A second claim of the same id affects no row
// and returns false.
func (l *EventLedger) Claim(ctx context.Context, eventID string, kind model.EventKind) (bool, error) {
	const query = `INSERT INTO processed_events (event_id, kind, claimed_at) VALUES (?, ?, ?) ON CONFLICT(event_id) DO NOTHING`

	result, err := l.db.Writer.ExecContext(ctx, query, eventID, string(kind), formatTime(time.Now()))
	if err != nil {
		return false, fmt.Errorf("claim event %s: %w", eventID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return rows == 1, nil
}

// Release deletes the claim. Releasing an unknown id is not an error.
func (l *EventLedger) Release(ctx context.Context, eventID string) error {
	if _, err := l.db.Writer.ExecContext(ctx, `DELETE FROM processed_events WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("release event %s: %w", eventID, err)
	}
	return nil
}
