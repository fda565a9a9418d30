package sqlite

import (
	"context"
	"fmt"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PaymentStore = (*PaymentRepo)(nil)

// PaymentRepo is the SQLite implementation of the PaymentStore port interface.
type PaymentRepo struct {
	db *DB
}

// NewPaymentRepo creates a new PaymentRepo backed by the given DB.
func NewPaymentRepo(db *DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

// Record appends a payment. The (invoice_id, status) unique index turns a
// repeated outcome into driven.ErrAlreadyExists.
func (r *PaymentRepo) Record(ctx context.Context, p model.Payment) error {
	const query = `
		INSERT INTO payments (id, user_id, event_id, invoice_id, subscription_id, amount_cents, currency, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		p.ID, p.UserID, p.EventID, p.InvoiceID, p.SubscriptionID,
		p.AmountCents, p.Currency, string(p.Status), formatTime(p.CreatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("record payment for invoice %s: %w", p.InvoiceID, driven.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("record payment for invoice %s: %w", p.InvoiceID, err)
	}
	return nil
}

// ListByUser returns the user's payments, newest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID string) ([]model.Payment, error) {
	const query = `
		SELECT id, user_id, event_id, invoice_id, subscription_id, amount_cents, currency, status, created_at
		FROM payments WHERE user_id = ? ORDER BY created_at DESC, id`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments for %s: %w", userID, err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		var status, createdAt string
		if err := rows.Scan(&p.ID, &p.UserID, &p.EventID, &p.InvoiceID, &p.SubscriptionID,
			&p.AmountCents, &p.Currency, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Status = model.PaymentStatus(status)
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}
