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
var _ driven.ProfileStore = (*ProfileRepo)(nil)

// ProfileRepo is the SQLite implementation of the ProfileStore port interface.
type ProfileRepo struct {
	db *DB
}

// NewProfileRepo creates a new ProfileRepo backed by the given DB.
func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileColumns = `id, email, full_name, tier, stripe_customer_id, created_at, updated_at`

// Ensure inserts the profile or refreshes the email and name of an existing
// one. Empty values never overwrite stored ones and the tier is left alone.
func (r *ProfileRepo) Ensure(ctx context.Context, profile model.Profile) (model.Profile, error) {
	const query = `
		INSERT INTO profiles (id, email, full_name, tier, stripe_customer_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email      = CASE WHEN excluded.email != '' THEN excluded.email ELSE profiles.email END,
			full_name  = CASE WHEN excluded.full_name != '' THEN excluded.full_name ELSE profiles.full_name END,
			updated_at = excluded.updated_at`

	tier := profile.Tier
	if !tier.Valid() {
		tier = model.TierFree
	}
	now := formatTime(time.Now())

	_, err := r.db.Writer.ExecContext(ctx, query, profile.ID, profile.Email, profile.FullName, string(tier), now, now)
	if err != nil {
		return model.Profile{}, fmt.Errorf("ensure profile %s: %w", profile.ID, err)
	}

	stored, err := scanProfile(r.db.Writer.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, profile.ID))
	if err != nil {
		return model.Profile{}, fmt.Errorf("reload profile %s: %w", profile.ID, err)
	}
	return stored, nil
}

// Get retrieves a profile by user id.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (model.Profile, error) {
	p, err := scanProfile(r.db.Reader.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, fmt.Errorf("profile %s: %w", userID, driven.ErrNotFound)
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return p, nil
}

// GetByStripeCustomer retrieves the profile linked to a processor customer.
func (r *ProfileRepo) GetByStripeCustomer(ctx context.Context, customerID string) (model.Profile, error) {
	if customerID == "" {
		return model.Profile{}, driven.ErrNotFound
	}
	p, err := scanProfile(r.db.Reader.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE stripe_customer_id = ? LIMIT 1`, customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, fmt.Errorf("profile for customer %s: %w", customerID, driven.ErrNotFound)
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("get profile by customer %s: %w", customerID, err)
	}
	return p, nil
}

// SetTier sets the plan tier, creating a bare profile if none exists.
func (r *ProfileRepo) SetTier(ctx context.Context, userID string, tier model.Tier) error {
	const query = `
		INSERT INTO profiles (id, tier, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET tier = excluded.tier, updated_at = excluded.updated_at`

	if !tier.Valid() {
		return fmt.Errorf("set tier %s: unknown tier %q", userID, tier)
	}
	now := formatTime(time.Now())
	if _, err := r.db.Writer.ExecContext(ctx, query, userID, string(tier), now, now); err != nil {
		return fmt.Errorf("set tier %s: %w", userID, err)
	}
	return nil
}

// SetStripeCustomer links a processor customer id to the profile, creating a
// bare profile if none exists.
func (r *ProfileRepo) SetStripeCustomer(ctx context.Context, userID, customerID string) error {
	const query = `
		INSERT INTO profiles (id, stripe_customer_id, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET stripe_customer_id = excluded.stripe_customer_id, updated_at = excluded.updated_at`

	now := formatTime(time.Now())
	if _, err := r.db.Writer.ExecContext(ctx, query, userID, customerID, now, now); err != nil {
		return fmt.Errorf("set stripe customer %s: %w", userID, err)
	}
	return nil
}

func scanProfile(s scanner) (model.Profile, error) {
	var p model.Profile
	var tier, createdAt, updatedAt string

	if err := s.Scan(&p.ID, &p.Email, &p.FullName, &tier, &p.StripeCustomerID, &createdAt, &updatedAt); err != nil {
		return model.Profile{}, err
	}
	p.Tier = model.Tier(tier)

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Profile{}, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Profile{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return p, nil
}
