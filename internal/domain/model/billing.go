package model

import "time"

// SubscriptionStatus mirrors the payment processor's subscription lifecycle.
type SubscriptionStatus string

const (
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionTrialing   SubscriptionStatus = "trialing"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
	SubscriptionUnpaid     SubscriptionStatus = "unpaid"
)

// Entitled reports whether a subscription in this status still grants its tier.
// past_due keeps access during the processor's dunning window.
func (s SubscriptionStatus) Entitled() bool {
	switch s {
	case SubscriptionActive, SubscriptionTrialing, SubscriptionPastDue:
		return true
	default:
		return false
	}
}

// ParseSubscriptionStatus maps a processor status string onto the local enum.
// incomplete_expired collapses into canceled; anything unrecognized is incomplete.
func ParseSubscriptionStatus(s string) SubscriptionStatus {
	switch s {
	case "active":
		return SubscriptionActive
	case "trialing":
		return SubscriptionTrialing
	case "past_due":
		return SubscriptionPastDue
	case "canceled", "incomplete_expired":
		return SubscriptionCanceled
	case "unpaid":
		return SubscriptionUnpaid
	default:
		return SubscriptionIncomplete
	}
}

// Subscription is the local copy of a user's plan subscription.
type Subscription struct {
	ID                   string
	UserID               string
	StripeSubscriptionID string
	StripeCustomerID     string
	Tier                 Tier
	Status               SubscriptionStatus
	CancelAtPeriodEnd    bool
	CurrentPeriodEnd     time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PaymentStatus is the outcome of an invoice payment attempt.
type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is an append-only record of an invoice payment attempt.
type Payment struct {
	ID             string
	UserID         string
	EventID        string
	InvoiceID      string
	SubscriptionID string
	AmountCents    int64
	Currency       string
	Status         PaymentStatus
	CreatedAt      time.Time
}

// PayoutAccount is a freelancer's connected account used to receive mission payouts.
type PayoutAccount struct {
	UserID           string
	StripeAccountID  string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
	Status           PayoutStatus
	UpdatedAt        time.Time
}

// PayoutStatus summarizes a connected account's onboarding state.
type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutRestricted PayoutStatus = "restricted"
	PayoutEnabled    PayoutStatus = "enabled"
)

// DerivePayoutStatus computes the status from the processor's capability flags.
func DerivePayoutStatus(chargesEnabled, payoutsEnabled, detailsSubmitted bool) PayoutStatus {
	switch {
	case chargesEnabled && payoutsEnabled:
		return PayoutEnabled
	case detailsSubmitted:
		return PayoutRestricted
	default:
		return PayoutPending
	}
}
