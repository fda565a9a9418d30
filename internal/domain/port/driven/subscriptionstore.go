package driven

import (
	"context"

	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// SubscriptionStore defines the driven port for subscription persistence.
// A user holds at most one subscription row; Upsert replaces it.
type SubscriptionStore interface {
	Upsert(ctx context.Context, sub model.Subscription) error
	GetByUser(ctx context.Context, userID string) (model.Subscription, error)
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (model.Subscription, error)
	// SetStatus updates only the status of the subscription with the given
	// processor id. Returns ErrNotFound when no row matches.
	SetStatus(ctx context.Context, stripeSubscriptionID string, status model.SubscriptionStatus) error
}
