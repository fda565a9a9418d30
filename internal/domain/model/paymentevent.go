package model

import "time"

// EventKind classifies a verified payment-processor notification.
type EventKind string

const (
	EventCheckoutCompleted   EventKind = "checkout.completed"
	EventSubscriptionUpdated EventKind = "subscription.updated"
	EventSubscriptionDeleted EventKind = "subscription.deleted"
	EventInvoicePaid         EventKind = "invoice.paid"
	EventInvoiceFailed       EventKind = "invoice.failed"
	EventAccountUpdated      EventKind = "account.updated"
	EventUnhandled           EventKind = "unhandled"
)

// PaymentEvent is a verified notification. Exactly one payload field is set,
// matching Kind; an unhandled event carries none.
type PaymentEvent struct {
	ID        string
	Kind      EventKind
	RawType   string
	CreatedAt time.Time

	Checkout     *CheckoutCompleted
	Subscription *SubscriptionChange
	Invoice      *InvoiceOutcome
	Account      *AccountChange
}

// CheckoutCompleted is the payload of a finished hosted checkout.
type CheckoutCompleted struct {
	SessionID         string
	ClientReferenceID string
	CustomerID        string
	SubscriptionID    string
	PriceID           string
	Metadata          map[string]string
}

// SubscriptionChange is the payload of a subscription update or deletion.
type SubscriptionChange struct {
	SubscriptionID    string
	CustomerID        string
	Status            string
	PriceID           string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  time.Time
	Metadata          map[string]string
}

// InvoiceOutcome is the payload of an invoice payment success or failure.
type InvoiceOutcome struct {
	InvoiceID      string
	CustomerID     string
	SubscriptionID string
	AmountCents    int64
	Currency       string
}

// AccountChange is the payload of a connected-account update.
type AccountChange struct {
	AccountID        string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
	Metadata         map[string]string
}
