package driven

import (
	"context"

	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// ProfileStore defines the driven port for user profile persistence.
// Get and GetByStripeCustomer return ErrNotFound for unknown users.
type ProfileStore interface {
	// Ensure inserts the profile on first sign-in and refreshes email/name
	// afterwards. The tier of an existing profile is never changed.
	Ensure(ctx context.Context, profile model.Profile) (model.Profile, error)
	Get(ctx context.Context, userID string) (model.Profile, error)
	GetByStripeCustomer(ctx context.Context, customerID string) (model.Profile, error)
	// SetTier creates a bare profile when none exists.
	SetTier(ctx context.Context, userID string, tier model.Tier) error
	SetStripeCustomer(ctx context.Context, userID, customerID string) error
}
