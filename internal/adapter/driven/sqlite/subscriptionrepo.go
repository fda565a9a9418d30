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
var _ driven.SubscriptionStore = (*SubscriptionRepo)(nil)

// SubscriptionRepo is the SQLite implementation of the SubscriptionStore port interface.
type SubscriptionRepo struct {
	db *DB
}

// NewSubscriptionRepo creates a new SubscriptionRepo backed by the given DB.
func NewSubscriptionRepo(db *DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

const subscriptionColumns = `id, user_id, stripe_subscription_id, stripe_customer_id, tier, status,
	cancel_at_period_end, current_period_end, created_at, updated_at`

// Upsert inserts or replaces the user's subscription row. The row id and
// creation time of an existing row are kept.
func (r *SubscriptionRepo) Upsert(ctx context.Context, sub model.Subscription) error {
	const query = `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			stripe_subscription_id = excluded.stripe_subscription_id,
			stripe_customer_id     = excluded.stripe_customer_id,
			tier                   = excluded.tier,
			status                 = excluded.status,
			cancel_at_period_end   = excluded.cancel_at_period_end,
			current_period_end     = excluded.current_period_end,
			updated_at             = excluded.updated_at`

	now := time.Now()
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := sub.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.StripeSubscriptionID, sub.StripeCustomerID,
		string(sub.Tier), string(sub.Status), sub.CancelAtPeriodEnd,
		formatTime(sub.CurrentPeriodEnd), formatTime(createdAt), formatTime(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert subscription for %s: %w", sub.UserID, err)
	}
	return nil
}

// GetByUser retrieves the user's subscription.
func (r *SubscriptionRepo) GetByUser(ctx context.Context, userID string) (model.Subscription, error) {
	sub, err := scanSubscription(r.db.Reader.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subscription{}, fmt.Errorf("subscription for %s: %w", userID, driven.ErrNotFound)
	}
	if err != nil {
		return model.Subscription{}, fmt.Errorf("get subscription for %s: %w", userID, err)
	}
	return sub, nil
}

// GetByStripeID retrieves a subscription by its processor id.
func (r *SubscriptionRepo) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (model.Subscription, error) {
	if stripeSubscriptionID == "" {
		return model.Subscription{}, driven.ErrNotFound
	}
	sub, err := scanSubscription(r.db.Reader.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE stripe_subscription_id = ?`, stripeSubscriptionID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subscription{}, fmt.Errorf("subscription %s: %w", stripeSubscriptionID, driven.ErrNotFound)
	}
	if err != nil {
		return model.Subscription{}, fmt.Errorf("get subscription %s: %w", stripeSubscriptionID, err)
	}
	return sub, nil
}

// SetStatus updates the status of the subscription with the processor id.
func (r *SubscriptionRepo) SetStatus(ctx context.Context, stripeSubscriptionID string, status model.SubscriptionStatus) error {
	const query = `UPDATE subscriptions SET status = ?, updated_at = ? WHERE stripe_subscription_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, string(status), formatTime(time.Now()), stripeSubscriptionID)
	if err != nil {
		return fmt.Errorf("set subscription status %s: %w", stripeSubscriptionID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("subscription %s: %w", stripeSubscriptionID, driven.ErrNotFound)
	}
	return nil
}

func scanSubscription(s scanner) (model.Subscription, error) {
	var sub model.Subscription
	var tier, status, periodEnd, createdAt, updatedAt string

	err := s.Scan(&sub.ID, &sub.UserID, &sub.StripeSubscriptionID, &sub.StripeCustomerID,
		&tier, &status, &sub.CancelAtPeriodEnd, &periodEnd, &createdAt, &updatedAt)
	if err != nil {
		return model.Subscription{}, err
	}
	sub.Tier = model.Tier(tier)
	sub.Status = model.SubscriptionStatus(status)

	if sub.CurrentPeriodEnd, err = parseTime(periodEnd); err != nil {
		return model.Subscription{}, fmt.Errorf("parse current_period_end: %w", err)
	}
	if sub.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Subscription{}, fmt.Errorf("parse created_at: %w", err)
	}
	if sub.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Subscription{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return sub, nil
}
