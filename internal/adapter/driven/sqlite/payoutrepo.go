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
var _ driven.PayoutStore = (*PayoutRepo)(nil)

// PayoutRepo is the SQLite implementation of the PayoutStore port interface.
type PayoutRepo struct {
	db *DB
}

// NewPayoutRepo creates a new PayoutRepo backed by the given DB.
func NewPayoutRepo(db *DB) *PayoutRepo {
	return &PayoutRepo{db: db}
}

const payoutColumns = `user_id, stripe_account_id, charges_enabled, payouts_enabled, details_submitted, status, updated_at`

// Upsert inserts or updates the user's connected account.
func (r *PayoutRepo) Upsert(ctx context.Context, a model.PayoutAccount) error {
	const query = `
		INSERT INTO payout_accounts (` + payoutColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			stripe_account_id = excluded.stripe_account_id,
			charges_enabled   = excluded.charges_enabled,
			payouts_enabled   = excluded.payouts_enabled,
			details_submitted = excluded.details_submitted,
			status            = excluded.status,
			updated_at        = excluded.updated_at`

	updatedAt := a.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	status := a.Status
	if status == "" {
		status = model.PayoutPending
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		a.UserID, a.StripeAccountID, a.ChargesEnabled, a.PayoutsEnabled, a.DetailsSubmitted,
		string(status), formatTime(updatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("upsert payout account %s: %w", a.StripeAccountID, driven.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("upsert payout account %s: %w", a.StripeAccountID, err)
	}
	return nil
}

// GetByUser retrieves the user's connected account.
func (r *PayoutRepo) GetByUser(ctx context.Context, userID string) (model.PayoutAccount, error) {
	a, err := scanPayout(r.db.Reader.QueryRowContext(ctx,
		`SELECT `+payoutColumns+` FROM payout_accounts WHERE user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.PayoutAccount{}, fmt.Errorf("payout account for %s: %w", userID, driven.ErrNotFound)
	}
	if err != nil {
		return model.PayoutAccount{}, fmt.Errorf("get payout account for %s: %w", userID, err)
	}
	return a, nil
}

// GetByStripeAccount retrieves a connected account by its processor id.
func (r *PayoutRepo) GetByStripeAccount(ctx context.Context, accountID string) (model.PayoutAccount, error) {
	a, err := scanPayout(r.db.Reader.QueryRowContext(ctx,
		`SELECT `+payoutColumns+` FROM payout_accounts WHERE stripe_account_id = ?`, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.PayoutAccount{}, fmt.Errorf("payout account %s: %w", accountID, driven.ErrNotFound)
	}
	if err != nil {
		return model.PayoutAccount{}, fmt.Errorf("get payout account %s: %w", accountID, err)
	}
	return a, nil
}

func scanPayout(s scanner) (model.PayoutAccount, error) {
	var a model.PayoutAccount
	var status, updatedAt string

	err := s.Scan(&a.UserID, &a.StripeAccountID, &a.ChargesEnabled, &a.PayoutsEnabled,
		&a.DetailsSubmitted, &status, &updatedAt)
	if err != nil {
		return model.PayoutAccount{}, err
	}
	a.Status = model.PayoutStatus(status)
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.PayoutAccount{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return a, nil
}
