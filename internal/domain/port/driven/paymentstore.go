package driven

import (
	"context"

	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// PaymentStore defines the driven port for the append-only payment ledger.
// Record returns ErrAlreadyExists when the invoice already has a payment
// with the same status.
type PaymentStore interface {
	Record(ctx context.Context, payment model.Payment) error
	ListByUser(ctx context.Context, userID string) ([]model.Payment, error)
}

// PayoutStore defines the driven port for freelancer connected accounts.
type PayoutStore interface {
	Upsert(ctx context.Context, account model.PayoutAccount) error
	GetByUser(ctx context.Context, userID string) (model.PayoutAccount, error)
	GetByStripeAccount(ctx context.Context, accountID string) (model.PayoutAccount, error)
}

// EventLedger records processed payment-event ids so redelivered events are
// applied once.
type EventLedger interface {
	// Claim records the event id. It returns false if the id was already claimed.
	Claim(ctx context.Context, eventID string, kind model.EventKind) (bool, error)
	// Release forgets a claim so a later redelivery can be processed again.
	Release(ctx context.Context, eventID string) error
}
