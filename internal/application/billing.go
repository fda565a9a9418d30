package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// BillingService creates hosted payment sessions and reconciles verified
// payment-processor events into subscription, profile, payment and payout rows.
type BillingService struct {
	gateway      driven.PaymentGateway
	profileStore driven.ProfileStore
	subStore     driven.SubscriptionStore
	paymentStore driven.PaymentStore
	payoutStore  driven.PayoutStore
	ledger       driven.EventLedger
	prices       map[model.Tier]string
	publicURL    string
	now          func() time.Time
}

// NewBillingService creates a BillingService. gateway may be nil when the
// processor is not configured; session methods then return driven.ErrNotConfigured.
// prices maps each paid tier to its processor price id.
func NewBillingService(
	gateway driven.PaymentGateway,
	profileStore driven.ProfileStore,
	subStore driven.SubscriptionStore,
	paymentStore driven.PaymentStore,
	payoutStore driven.PayoutStore,
	ledger driven.EventLedger,
	prices map[model.Tier]string,
	publicURL string,
) *BillingService {
	return &BillingService{
		gateway:      gateway,
		profileStore: profileStore,
		subStore:     subStore,
		paymentStore: paymentStore,
		payoutStore:  payoutStore,
		ledger:       ledger,
		prices:       prices,
		publicURL:    strings.TrimSuffix(publicURL, "/"),
		now:          time.Now,
	}
}

// Configured reports whether a payment gateway is available.
func (s *BillingService) Configured() bool {
	return s.gateway != nil
}

// StartCheckout opens a hosted checkout for a paid tier and returns its URL.
// Callers with an entitled subscription get ErrSubscriptionActive; plan
// changes go through the portal so a second subscription is never created.
func (s *BillingService) StartCheckout(ctx context.Context, id model.Identity, tier model.Tier) (string, error) {
	if s.gateway == nil {
		return "", driven.ErrNotConfigured
	}
	if !tier.Paid() {
		return "", ErrTierNotPurchasable
	}
	priceID := s.prices[tier]
	if priceID == "" {
		return "", fmt.Errorf("no price for tier %s: %w", tier, driven.ErrNotConfigured)
	}

	current, err := s.CurrentSubscription(ctx, id.UserID)
	if err != nil {
		return "", err
	}
	if current != nil && current.StripeSubscriptionID != "" && current.Status.Entitled() {
		return "", ErrSubscriptionActive
	}

	var customerID string
	profile, err := s.profileStore.Get(ctx, id.UserID)
	switch {
	case err == nil:
		customerID = profile.StripeCustomerID
	case !errors.Is(err, driven.ErrNotFound):
		return "", fmt.Errorf("load profile %s: %w", id.UserID, err)
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, driven.CheckoutRequest{
		UserID:     id.UserID,
		Email:      id.Email,
		CustomerID: customerID,
		PriceID:    priceID,
		Tier:       tier,
		SuccessURL: s.publicURL + "/app/dashboard?checkout=success",
		CancelURL:  s.publicURL + "/pricing?checkout=canceled",
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return url, nil
}

// OpenPortal returns a customer-portal URL for managing the caller's subscription.
func (s *BillingService) OpenPortal(ctx context.Context, id model.Identity) (string, error) {
	if s.gateway == nil {
		return "", driven.ErrNotConfigured
	}

	profile, err := s.profileStore.Get(ctx, id.UserID)
	if errors.Is(err, driven.ErrNotFound) {
		return "", ErrNoBillingAccount
	}
	if err != nil {
		return "", fmt.Errorf("load profile %s: %w", id.UserID, err)
	}
	if profile.StripeCustomerID == "" {
		return "", ErrNoBillingAccount
	}

	url, err := s.gateway.CreatePortalSession(ctx, profile.StripeCustomerID, s.publicURL+"/pricing")
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return url, nil
}

// StartConnectOnboarding returns an onboarding link for the caller's payout
// account, creating the connected account on first use.
func (s *BillingService) StartConnectOnboarding(ctx context.Context, id model.Identity) (string, error) {
	if s.gateway == nil {
		return "", driven.ErrNotConfigured
	}

	existing, err := s.payoutStore.GetByUser(ctx, id.UserID)
	if err != nil && !errors.Is(err, driven.ErrNotFound) {
		return "", fmt.Errorf("load payout account %s: %w", id.UserID, err)
	}

	onboarding, err := s.gateway.CreateConnectOnboarding(ctx, driven.ConnectRequest{
		UserID:     id.UserID,
		Email:      id.Email,
		AccountID:  existing.StripeAccountID,
		RefreshURL: s.publicURL + "/app/missions?connect=refresh",
		ReturnURL:  s.publicURL + "/app/missions?connect=done",
	})
	if err != nil {
		return "", fmt.Errorf("create connect onboarding: %w", err)
	}

	if existing.StripeAccountID == "" {
		account := model.PayoutAccount{
			UserID:          id.UserID,
			StripeAccountID: onboarding.AccountID,
			Status:          model.PayoutPending,
			UpdatedAt:       s.now().UTC(),
		}
		if err := s.payoutStore.Upsert(ctx, account); err != nil {
			return "", fmt.Errorf("save payout account %s: %w", id.UserID, err)
		}
	}

	return onboarding.URL, nil
}

// CurrentSubscription returns the caller's subscription, or nil if none exists.
func (s *BillingService) CurrentSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := s.subStore.GetByUser(ctx, userID)
	if errors.Is(err, driven.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription %s: %w", userID, err)
	}
	return &sub, nil
}

// Reconcile applies a verified payment event. Events already seen are
// skipped. When applying fails the claim is released so a redelivery retries;
// writes that succeeded before the failure are not undone.
func (s *BillingService) Reconcile(ctx context.Context, evt model.PaymentEvent) error {
	if evt.ID == "" {
		return invalid("event id missing")
	}

	claimed, err := s.ledger.Claim(ctx, evt.ID, evt.Kind)
	if err != nil {
		return fmt.Errorf("claim event %s: %w", evt.ID, err)
	}
	if !claimed {
		slog.Info("duplicate payment event skipped", "event_id", evt.ID, "kind", evt.Kind)
		return nil
	}

	err = s.apply(ctx, evt)
	if err == nil {
		slog.Info("payment event applied", "event_id", evt.ID, "kind", evt.Kind)
		return nil
	}

	// Unresolvable events will not improve on redelivery; keep the claim.
	if !errors.Is(err, ErrUnresolvableEvent) {
		if relErr := s.ledger.Release(ctx, evt.ID); relErr != nil {
			slog.Error("release event claim failed", "event_id", evt.ID, "error", relErr)
		}
	}
	return err
}

func (s *BillingService) apply(ctx context.Context, evt model.PaymentEvent) error {
	switch evt.Kind {
	case model.EventCheckoutCompleted:
		return s.applyCheckout(ctx, evt.Checkout)
	case model.EventSubscriptionUpdated:
		return s.applySubscriptionChange(ctx, evt.Subscription, false)
	case model.EventSubscriptionDeleted:
		return s.applySubscriptionChange(ctx, evt.Subscription, true)
	case model.EventInvoicePaid:
		return s.applyInvoice(ctx, evt.ID, evt.Invoice, model.PaymentSucceeded)
	case model.EventInvoiceFailed:
		return s.applyInvoice(ctx, evt.ID, evt.Invoice, model.PaymentFailed)
	case model.EventAccountUpdated:
		return s.applyAccount(ctx, evt.Account)
	default:
		slog.Debug("payment event ignored", "event_id", evt.ID, "type", evt.RawType)
		return nil
	}
}

func (s *BillingService) applyCheckout(ctx context.Context, c *model.CheckoutCompleted) error {
	if c == nil {
		return fmt.Errorf("checkout payload missing: %w", ErrUnresolvableEvent)
	}

	userID := c.ClientReferenceID
	if userID == "" {
		userID = c.Metadata["user_id"]
	}
	tier := s.resolveTier(c.Metadata["tier"], c.PriceID)
	if userID == "" || !tier.Paid() {
		return fmt.Errorf("checkout %s: %w", c.SessionID, ErrUnresolvableEvent)
	}

	sub := model.Subscription{
		UserID:               userID,
		StripeSubscriptionID: c.SubscriptionID,
		StripeCustomerID:     c.CustomerID,
		Tier:                 tier,
		Status:               model.SubscriptionActive,
		UpdatedAt:            s.now().UTC(),
	}
	if existing, err := s.subStore.GetByUser(ctx, userID); err == nil {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, driven.ErrNotFound) {
		return fmt.Errorf("load subscription %s: %w", userID, err)
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
		sub.CreatedAt = sub.UpdatedAt
	}

	if err := s.subStore.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("upsert subscription %s: %w", userID, err)
	}
	if err := s.profileStore.SetTier(ctx, userID, tier); err != nil {
		return fmt.Errorf("set tier %s: %w", userID, err)
	}
	if c.CustomerID != "" {
		if err := s.profileStore.SetStripeCustomer(ctx, userID, c.CustomerID); err != nil {
			return fmt.Errorf("set stripe customer %s: %w", userID, err)
		}
	}
	return nil
}

func (s *BillingService) applySubscriptionChange(ctx context.Context, c *model.SubscriptionChange, deleted bool) error {
	if c == nil {
		return fmt.Errorf("subscription payload missing: %w", ErrUnresolvableEvent)
	}

	sub, err := s.findSubscription(ctx, c)
	if err != nil {
		return err
	}

	status := model.ParseSubscriptionStatus(c.Status)
	if deleted {
		status = model.SubscriptionCanceled
	}

	if tier := s.resolveTier(c.Metadata["tier"], c.PriceID); tier.Paid() {
		sub.Tier = tier
	}
	if status.Entitled() && !sub.Tier.Paid() {
		return fmt.Errorf("subscription %s has no tier: %w", c.SubscriptionID, ErrUnresolvableEvent)
	}

	sub.Status = status
	sub.CancelAtPeriodEnd = c.CancelAtPeriodEnd
	sub.CurrentPeriodEnd = c.CurrentPeriodEnd
	if c.CustomerID != "" {
		sub.StripeCustomerID = c.CustomerID
	}
	sub.UpdatedAt = s.now().UTC()

	if err := s.subStore.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("upsert subscription %s: %w", sub.UserID, err)
	}

	profileTier := model.TierFree
	if status.Entitled() {
		profileTier = sub.Tier
	}
	if err := s.profileStore.SetTier(ctx, sub.UserID, profileTier); err != nil {
		return fmt.Errorf("set tier %s: %w", sub.UserID, err)
	}
	return nil
}

// findSubscription locates the local row for a processor subscription, falling
// back to metadata and customer lookups for subscriptions created elsewhere.
func (s *BillingService) findSubscription(ctx context.Context, c *model.SubscriptionChange) (model.Subscription, error) {
	sub, err := s.subStore.GetByStripeID(ctx, c.SubscriptionID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, driven.ErrNotFound) {
		return model.Subscription{}, fmt.Errorf("load subscription %s: %w", c.SubscriptionID, err)
	}

	userID := c.Metadata["user_id"]
	if userID == "" && c.CustomerID != "" {
		profile, err := s.profileStore.GetByStripeCustomer(ctx, c.CustomerID)
		if err != nil && !errors.Is(err, driven.ErrNotFound) {
			return model.Subscription{}, fmt.Errorf("load profile by customer %s: %w", c.CustomerID, err)
		}
		userID = profile.ID
	}
	if userID == "" {
		return model.Subscription{}, fmt.Errorf("subscription %s: %w", c.SubscriptionID, ErrUnresolvableEvent)
	}

	now := s.now().UTC()
	sub = model.Subscription{
		ID:                   uuid.NewString(),
		UserID:               userID,
		StripeSubscriptionID: c.SubscriptionID,
		CreatedAt:            now,
	}
	// A user keeps a single subscription row; adopt its id if one exists.
	// A row held by another live subscription means this event is for one
	// that was superseded and must not touch the row or the profile.
	if existing, err := s.subStore.GetByUser(ctx, userID); err == nil {
		if existing.StripeSubscriptionID != "" &&
			existing.StripeSubscriptionID != c.SubscriptionID &&
			existing.Status.Entitled() {
			return model.Subscription{}, fmt.Errorf("subscription %s superseded by %s: %w",
				c.SubscriptionID, existing.StripeSubscriptionID, ErrUnresolvableEvent)
		}
		sub.ID = existing.ID
		sub.Tier = existing.Tier
		sub.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, driven.ErrNotFound) {
		return model.Subscription{}, fmt.Errorf("load subscription %s: %w", userID, err)
	}
	return sub, nil
}

func (s *BillingService) applyInvoice(ctx context.Context, eventID string, inv *model.InvoiceOutcome, status model.PaymentStatus) error {
	if inv == nil {
		return fmt.Errorf("invoice payload missing: %w", ErrUnresolvableEvent)
	}

	userID, err := s.invoiceUser(ctx, inv)
	if err != nil {
		return err
	}

	payment := model.Payment{
		ID:             uuid.NewString(),
		UserID:         userID,
		EventID:        eventID,
		InvoiceID:      inv.InvoiceID,
		SubscriptionID: inv.SubscriptionID,
		AmountCents:    inv.AmountCents,
		Currency:       strings.ToLower(inv.Currency),
		Status:         status,
		CreatedAt:      s.now().UTC(),
	}
	err = s.paymentStore.Record(ctx, payment)
	switch {
	case errors.Is(err, driven.ErrAlreadyExists):
		slog.Info("payment already recorded", "invoice", inv.InvoiceID, "status", status)
	case err != nil:
		return fmt.Errorf("record payment %s: %w", inv.InvoiceID, err)
	}

	if status == model.PaymentFailed && inv.SubscriptionID != "" {
		err := s.subStore.SetStatus(ctx, inv.SubscriptionID, model.SubscriptionPastDue)
		if err != nil && !errors.Is(err, driven.ErrNotFound) {
			return fmt.Errorf("mark subscription %s past due: %w", inv.SubscriptionID, err)
		}
	}
	return nil
}

func (s *BillingService) invoiceUser(ctx context.Context, inv *model.InvoiceOutcome) (string, error) {
	if inv.SubscriptionID != "" {
		sub, err := s.subStore.GetByStripeID(ctx, inv.SubscriptionID)
		if err == nil {
			return sub.UserID, nil
		}
		if !errors.Is(err, driven.ErrNotFound) {
			return "", fmt.Errorf("load subscription %s: %w", inv.SubscriptionID, err)
		}
	}
	if inv.CustomerID != "" {
		profile, err := s.profileStore.GetByStripeCustomer(ctx, inv.CustomerID)
		if err == nil {
			return profile.ID, nil
		}
		if !errors.Is(err, driven.ErrNotFound) {
			return "", fmt.Errorf("load profile by customer %s: %w", inv.CustomerID, err)
		}
	}
	return "", fmt.Errorf("invoice %s: %w", inv.InvoiceID, ErrUnresolvableEvent)
}

func (s *BillingService) applyAccount(ctx context.Context, a *model.AccountChange) error {
	if a == nil {
		return fmt.Errorf("account payload missing: %w", ErrUnresolvableEvent)
	}

	account, err := s.payoutStore.GetByStripeAccount(ctx, a.AccountID)
	if errors.Is(err, driven.ErrNotFound) {
		userID := a.Metadata["user_id"]
		if userID == "" {
			return fmt.Errorf("account %s: %w", a.AccountID, ErrUnresolvableEvent)
		}
		account = model.PayoutAccount{UserID: userID, StripeAccountID: a.AccountID}
	} else if err != nil {
		return fmt.Errorf("load payout account %s: %w", a.AccountID, err)
	}

	account.ChargesEnabled = a.ChargesEnabled
	account.PayoutsEnabled = a.PayoutsEnabled
	account.DetailsSubmitted = a.DetailsSubmitted
	account.Status = model.DerivePayoutStatus(a.ChargesEnabled, a.PayoutsEnabled, a.DetailsSubmitted)
	account.UpdatedAt = s.now().UTC()

	if err := s.payoutStore.Upsert(ctx, account); err != nil {
		return fmt.Errorf("upsert payout account %s: %w", a.AccountID, err)
	}
	return nil
}

// resolveTier prefers the tier stamped into metadata at checkout and falls
// back to reverse-mapping the price id.
func (s *BillingService) resolveTier(metaTier, priceID string) model.Tier {
	if t, err := model.ParseTier(metaTier); err == nil && t.Paid() {
		return t
	}
	if priceID == "" {
		return ""
	}
	for tier, id := range s.prices {
		if id == priceID {
			return tier
		}
	}
	return ""
}
