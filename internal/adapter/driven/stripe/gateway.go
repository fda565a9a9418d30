// Package stripe implements the PaymentGateway port with stripe-go.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PaymentGateway = (*Gateway)(nil)

// Gateway talks to the Stripe API for hosted checkout, the billing portal
// and Connect onboarding, and verifies webhook deliveries.
type Gateway struct {
	api           *client.API
	webhookSecret string
}

// NewGateway creates a Gateway using the default Stripe backends.
func NewGateway(secretKey, webhookSecret string) *Gateway {
	return NewGatewayWithBackends(secretKey, webhookSecret, nil)
}

// NewGatewayWithBackends creates a Gateway with custom backends. Tests point
// the API backend at an httptest server.
func NewGatewayWithBackends(secretKey, webhookSecret string, backends *stripeapi.Backends) *Gateway {
	return &Gateway{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
	}
}

// CreateCheckoutSession starts a hosted subscription checkout and returns its URL.
// The user id is carried as client_reference_id and in metadata on both the
// session and the subscription so later events can be attributed.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, req driven.CheckoutRequest) (string, error) {
	meta := map[string]string{"user_id": req.UserID, "tier": string(req.Tier)}

	params := &stripeapi.CheckoutSessionParams{
		Mode:              stripeapi.String(string(stripeapi.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripeapi.String(req.UserID),
		SuccessURL:        stripeapi.String(req.SuccessURL),
		CancelURL:         stripeapi.String(req.CancelURL),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{Price: stripeapi.String(req.PriceID), Quantity: stripeapi.Int64(1)},
		},
		SubscriptionData: &stripeapi.CheckoutSessionSubscriptionDataParams{Metadata: meta},
		Metadata:         meta,
	}
	params.Context = ctx

	switch {
	case req.CustomerID != "":
		params.Customer = stripeapi.String(req.CustomerID)
	case req.Email != "":
		params.CustomerEmail = stripeapi.String(req.Email)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePortalSession opens the customer billing portal and returns its URL.
func (g *Gateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripeapi.BillingPortalSessionParams{
		Customer:  stripeapi.String(customerID),
		ReturnURL: stripeapi.String(returnURL),
	}
	params.Context = ctx

	sess, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

// CreateConnectOnboarding creates an Express account when req.AccountID is
// empty, then returns an onboarding link for the account.
func (g *Gateway) CreateConnectOnboarding(ctx context.Context, req driven.ConnectRequest) (driven.ConnectOnboarding, error) {
	accountID := req.AccountID
	if accountID == "" {
		params := &stripeapi.AccountParams{
			Type:     stripeapi.String(string(stripeapi.AccountTypeExpress)),
			Metadata: map[string]string{"user_id": req.UserID},
		}
		if req.Email != "" {
			params.Email = stripeapi.String(req.Email)
		}
		params.Context = ctx

		acct, err := g.api.Accounts.New(params)
		if err != nil {
			return driven.ConnectOnboarding{}, fmt.Errorf("create connected account: %w", err)
		}
		accountID = acct.ID
	}

	linkParams := &stripeapi.AccountLinkParams{
		Account:    stripeapi.String(accountID),
		RefreshURL: stripeapi.String(req.RefreshURL),
		ReturnURL:  stripeapi.String(req.ReturnURL),
		Type:       stripeapi.String("account_onboarding"),
	}
	linkParams.Context = ctx

	link, err := g.api.AccountLinks.New(linkParams)
	if err != nil {
		return driven.ConnectOnboarding{}, fmt.Errorf("create account link for %s: %w", accountID, err)
	}
	return driven.ConnectOnboarding{AccountID: accountID, URL: link.URL}, nil
}

// VerifyEvent checks the Stripe-Signature header (default five-minute
// tolerance) and decodes the event payload into a model.PaymentEvent.
func (g *Gateway) VerifyEvent(payload []byte, signatureHeader string) (model.PaymentEvent, error) {
	if g.webhookSecret == "" {
		return model.PaymentEvent{}, fmt.Errorf("webhook secret: %w", driven.ErrNotConfigured)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return model.PaymentEvent{}, fmt.Errorf("%w: %v", driven.ErrInvalidSignature, err)
	}

	return decodeEvent(event)
}

func decodeEvent(event stripeapi.Event) (model.PaymentEvent, error) {
	evt := model.PaymentEvent{
		ID:        event.ID,
		RawType:   string(event.Type),
		CreatedAt: time.Unix(event.Created, 0).UTC(),
		Kind:      kindOf(string(event.Type)),
	}
	if evt.Kind == model.EventUnhandled {
		return evt, nil
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return model.PaymentEvent{}, fmt.Errorf("decode %s %s: empty data object", evt.RawType, evt.ID)
	}
	raw := event.Data.Raw

	var err error
	switch evt.Kind {
	case model.EventCheckoutCompleted:
		evt.Checkout, err = decodeCheckout(raw)
	case model.EventSubscriptionUpdated, model.EventSubscriptionDeleted:
		evt.Subscription, err = decodeSubscription(raw)
	case model.EventInvoicePaid, model.EventInvoiceFailed:
		evt.Invoice, err = decodeInvoice(raw)
	case model.EventAccountUpdated:
		evt.Account, err = decodeAccount(raw)
	}
	if err != nil {
		return model.PaymentEvent{}, fmt.Errorf("decode %s %s: %w", evt.RawType, evt.ID, err)
	}
	return evt, nil
}

func kindOf(eventType string) model.EventKind {
	switch eventType {
	case "checkout.session.completed":
		return model.EventCheckoutCompleted
	case "customer.subscription.created", "customer.subscription.updated":
		return model.EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return model.EventSubscriptionDeleted
	case "invoice.paid", "invoice.payment_succeeded":
		return model.EventInvoicePaid
	case "invoice.payment_failed":
		return model.EventInvoiceFailed
	case "account.updated":
		return model.EventAccountUpdated
	default:
		return model.EventUnhandled
	}
}

// The wire structs below decode only the fields reconciliation needs.
// Expandable references arrive either as an id string or as an object.

type expandable struct {
	ID string
}

func (e *expandable) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.ID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	e.ID = obj.ID
	return nil
}

type priceRef struct {
	Price struct {
		ID string `json:"id"`
	} `json:"price"`
}

type checkoutObject struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	Customer          expandable        `json:"customer"`
	Subscription      expandable        `json:"subscription"`
	Metadata          map[string]string `json:"metadata"`
	LineItems         struct {
		Data []priceRef `json:"data"`
	} `json:"line_items"`
}

func decodeCheckout(raw json.RawMessage) (*model.CheckoutCompleted, error) {
	var obj checkoutObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	out := &model.CheckoutCompleted{
		SessionID:         obj.ID,
		ClientReferenceID: obj.ClientReferenceID,
		CustomerID:        obj.Customer.ID,
		SubscriptionID:    obj.Subscription.ID,
		Metadata:          obj.Metadata,
	}
	if len(obj.LineItems.Data) > 0 {
		out.PriceID = obj.LineItems.Data[0].Price.ID
	}
	return out, nil
}

type subscriptionItem struct {
	priceRef
	CurrentPeriodEnd int64 `json:"current_period_end"`
}

type subscriptionObject struct {
	ID                string            `json:"id"`
	Customer          expandable        `json:"customer"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64             `json:"current_period_end"`
	Metadata          map[string]string `json:"metadata"`
	Items             struct {
		Data []subscriptionItem `json:"data"`
	} `json:"items"`
}

func decodeSubscription(raw json.RawMessage) (*model.SubscriptionChange, error) {
	var obj subscriptionObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	out := &model.SubscriptionChange{
		SubscriptionID:    obj.ID,
		CustomerID:        obj.Customer.ID,
		Status:            obj.Status,
		CancelAtPeriodEnd: obj.CancelAtPeriodEnd,
		Metadata:          obj.Metadata,
	}

	// Newer API versions moved the period end onto the subscription items.
	periodEnd := obj.CurrentPeriodEnd
	if len(obj.Items.Data) > 0 {
		item := obj.Items.Data[0]
		out.PriceID = item.Price.ID
		if periodEnd == 0 {
			periodEnd = item.CurrentPeriodEnd
		}
	}
	if periodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(periodEnd, 0).UTC()
	}
	return out, nil
}

type invoiceObject struct {
	ID           string     `json:"id"`
	Customer     expandable `json:"customer"`
	Subscription expandable `json:"subscription"`
	AmountPaid   int64      `json:"amount_paid"`
	AmountDue    int64      `json:"amount_due"`
	Currency     string     `json:"currency"`
	Parent       struct {
		SubscriptionDetails struct {
			Subscription expandable `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func decodeInvoice(raw json.RawMessage) (*model.InvoiceOutcome, error) {
	var obj invoiceObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	subID := obj.Subscription.ID
	if subID == "" {
		subID = obj.Parent.SubscriptionDetails.Subscription.ID
	}
	amount := obj.AmountPaid
	if amount == 0 {
		amount = obj.AmountDue
	}

	return &model.InvoiceOutcome{
		InvoiceID:      obj.ID,
		CustomerID:     obj.Customer.ID,
		SubscriptionID: subID,
		AmountCents:    amount,
		Currency:       obj.Currency,
	}, nil
}

type accountObject struct {
	ID               string            `json:"id"`
	ChargesEnabled   bool              `json:"charges_enabled"`
	PayoutsEnabled   bool              `json:"payouts_enabled"`
	DetailsSubmitted bool              `json:"details_submitted"`
	Metadata         map[string]string `json:"metadata"`
}

func decodeAccount(raw json.RawMessage) (*model.AccountChange, error) {
	var obj accountObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return &model.AccountChange{
		AccountID:        obj.ID,
		ChargesEnabled:   obj.ChargesEnabled,
		PayoutsEnabled:   obj.PayoutsEnabled,
		DetailsSubmitted: obj.DetailsSubmitted,
		Metadata:         obj.Metadata,
	}, nil
}
