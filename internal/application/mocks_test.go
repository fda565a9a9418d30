package application_test

import (
	"context"
	"sync"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// --- In-memory store fakes shared by the service tests ---

type mockProfileStore struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	getErr   error
	setErr   error
}

func newMockProfileStore(profiles ...model.Profile) *mockProfileStore {
	m := &mockProfileStore{profiles: make(map[string]model.Profile)}
	for _, p := range profiles {
		m.profiles[p.ID] = p
	}
	return m
}

func (m *mockProfileStore) Ensure(_ context.Context, p model.Profile) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.profiles[p.ID]; ok {
		existing.Email = p.Email
		existing.FullName = p.FullName
		m.profiles[p.ID] = existing
		return existing, nil
	}
	m.profiles[p.ID] = p
	return p, nil
}

func (m *mockProfileStore) Get(_ context.Context, userID string) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return model.Profile{}, m.getErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return model.Profile{}, driven.ErrNotFound
	}
	return p, nil
}

func (m *mockProfileStore) GetByStripeCustomer(_ context.Context, customerID string) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.StripeCustomerID == customerID {
			return p, nil
		}
	}
	return model.Profile{}, driven.ErrNotFound
}

func (m *mockProfileStore) SetTier(_ context.Context, userID string, tier model.Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	p := m.profiles[userID]
	p.ID = userID
	p.Tier = tier
	m.profiles[userID] = p
	return nil
}

func (m *mockProfileStore) SetStripeCustomer(_ context.Context, userID, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profiles[userID]
	p.ID = userID
	p.StripeCustomerID = customerID
	m.profiles[userID] = p
	return nil
}

func (m *mockProfileStore) tierOf(userID string) model.Tier {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[userID].Tier
}

type mockSubscriptionStore struct {
	byUser    map[string]model.Subscription
	upsertErr error
}

func newMockSubscriptionStore(subs ...model.Subscription) *mockSubscriptionStore {
	m := &mockSubscriptionStore{byUser: make(map[string]model.Subscription)}
	for _, s := range subs {
		m.byUser[s.UserID] = s
	}
	return m
}

func (m *mockSubscriptionStore) Upsert(_ context.Context, sub model.Subscription) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.byUser[sub.UserID] = sub
	return nil
}

func (m *mockSubscriptionStore) GetByUser(_ context.Context, userID string) (model.Subscription, error) {
	s, ok := m.byUser[userID]
	if !ok {
		return model.Subscription{}, driven.ErrNotFound
	}
	return s, nil
}

func (m *mockSubscriptionStore) GetByStripeID(_ context.Context, id string) (model.Subscription, error) {
	for _, s := range m.byUser {
		if s.StripeSubscriptionID == id {
			return s, nil
		}
	}
	return model.Subscription{}, driven.ErrNotFound
}

func (m *mockSubscriptionStore) SetStatus(_ context.Context, id string, status model.SubscriptionStatus) error {
	for user, s := range m.byUser {
		if s.StripeSubscriptionID == id {
			s.Status = status
			m.byUser[user] = s
			return nil
		}
	}
	return driven.ErrNotFound
}

type mockPaymentStore struct {
	payments []model.Payment
}

func (m *mockPaymentStore) Record(_ context.Context, p model.Payment) error {
	for _, existing := range m.payments {
		if existing.InvoiceID == p.InvoiceID && existing.Status == p.Status {
			return driven.ErrAlreadyExists
		}
	}
	m.payments = append(m.payments, p)
	return nil
}

func (m *mockPaymentStore) ListByUser(_ context.Context, userID string) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range m.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockPayoutStore struct {
	byUser map[string]model.PayoutAccount
}

func newMockPayoutStore() *mockPayoutStore {
	return &mockPayoutStore{byUser: make(map[string]model.PayoutAccount)}
}

func (m *mockPayoutStore) Upsert(_ context.Context, a model.PayoutAccount) error {
	m.byUser[a.UserID] = a
	return nil
}

func (m *mockPayoutStore) GetByUser(_ context.Context, userID string) (model.PayoutAccount, error) {
	a, ok := m.byUser[userID]
	if !ok {
		return model.PayoutAccount{}, driven.ErrNotFound
	}
	return a, nil
}

func (m *mockPayoutStore) GetByStripeAccount(_ context.Context, accountID string) (model.PayoutAccount, error) {
	for _, a := range m.byUser {
		if a.StripeAccountID == accountID {
			return a, nil
		}
	}
	return model.PayoutAccount{}, driven.ErrNotFound
}

type mockLedger struct {
	claimed  map[string]bool
	released []string
}

func newMockLedger() *mockLedger {
	return &mockLedger{claimed: make(map[string]bool)}
}

func (m *mockLedger) Claim(_ context.Context, eventID string, _ model.EventKind) (bool, error) {
	if m.claimed[eventID] {
		return false, nil
	}
	m.claimed[eventID] = true
	return true, nil
}

func (m *mockLedger) Release(_ context.Context, eventID string) error {
	delete(m.claimed, eventID)
	m.released = append(m.released, eventID)
	return nil
}

type mockGateway struct {
	checkouts   []driven.CheckoutRequest
	portals     []string
	connects    []driven.ConnectRequest
	newAccount  string
	checkoutErr error
}

func (m *mockGateway) VerifyEvent(_ []byte, _ string) (model.PaymentEvent, error) {
	return model.PaymentEvent{}, driven.ErrInvalidSignature
}

func (m *mockGateway) CreateCheckoutSession(_ context.Context, req driven.CheckoutRequest) (string, error) {
	if m.checkoutErr != nil {
		return "", m.checkoutErr
	}
	m.checkouts = append(m.checkouts, req)
	return "https://checkout.example/session", nil
}

func (m *mockGateway) CreatePortalSession(_ context.Context, customerID, _ string) (string, error) {
	m.portals = append(m.portals, customerID)
	return "https://portal.example/session", nil
}

func (m *mockGateway) CreateConnectOnboarding(_ context.Context, req driven.ConnectRequest) (driven.ConnectOnboarding, error) {
	m.connects = append(m.connects, req)
	accountID := req.AccountID
	if accountID == "" {
		accountID = m.newAccount
	}
	return driven.ConnectOnboarding{AccountID: accountID, URL: "https://connect.example/onboard"}, nil
}
