package driven

import (
	"context"

	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// CheckoutRequest is the input to PaymentGateway.CreateCheckoutSession.
type CheckoutRequest struct {
	UserID     string
	Email      string
	CustomerID string // Existing processor customer, if any.
	PriceID    string
	Tier       model.Tier
	SuccessURL string
	CancelURL  string
}

// ConnectRequest is the input to PaymentGateway.CreateConnectOnboarding.
type ConnectRequest struct {
	UserID     string
	Email      string
	AccountID  string // Existing connected account, if any.
	RefreshURL string
	ReturnURL  string
}

// ConnectOnboarding is the result of CreateConnectOnboarding.
type ConnectOnboarding struct {
	AccountID string
	URL       string
}

// PaymentGateway defines the driven port for the payment processor.
type PaymentGateway interface {
	// VerifyEvent checks the signature header against the webhook secret and
	// decodes the payload. Returns ErrInvalidSignature on any failure.
	VerifyEvent(payload []byte, signatureHeader string) (model.PaymentEvent, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	CreateConnectOnboarding(ctx context.Context, req ConnectRequest) (ConnectOnboarding, error)
}

// AutomationClient defines the driven port for the AI-chat automation webhook.
type AutomationClient interface {
	Send(ctx context.Context, req model.ChatRequest) (model.ChatReply, error)
}

// AuthProvider defines the driven port for the hosted authentication service.
type AuthProvider interface {
	// ExchangeCode trades an OAuth/PKCE authorization code for a session.
	ExchangeCode(ctx context.Context, code, codeVerifier string) (model.Session, error)
}

// CatalogSource defines the driven port for the upstream workflow catalog.
type CatalogSource interface {
	ListEntries(ctx context.Context) ([]model.CatalogEntry, error)
	Fetch(ctx context.Context, path string) ([]byte, error)
}
