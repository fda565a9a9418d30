package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

func TestProfileRepo_EnsureKeepsTier(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepo(db)
	ctx := context.Background()

	p, err := repo.Ensure(ctx, model.Profile{ID: "u1", Email: "a@example.com", FullName: "Ada", Tier: model.TierFree})
	require.NoError(t, err)
	assert.Equal(t, model.TierFree, p.Tier)
	assert.False(t, p.CreatedAt.IsZero())

	require.NoError(t, repo.SetTier(ctx, "u1", model.TierPro))

	p, err = repo.Ensure(ctx, model.Profile{ID: "u1", Email: "new@example.com", Tier: model.TierFree})
	require.NoError(t, err)
	assert.Equal(t, model.TierPro, p.Tier, "sign-in must not reset the tier")
	assert.Equal(t, "new@example.com", p.Email)
	assert.Equal(t, "Ada", p.FullName, "empty name must not overwrite")
}

func TestProfileRepo_SetTierCreatesProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.SetTier(ctx, "ghost", model.TierBusiness))
	require.NoError(t, repo.SetStripeCustomer(ctx, "ghost", "cus_1"))

	p, err := repo.GetByStripeCustomer(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "ghost", p.ID)
	assert.Equal(t, model.TierBusiness, p.Tier)

	require.Error(t, repo.SetTier(ctx, "ghost", "gold"))

	_, err = repo.Get(ctx, "nobody")
	require.ErrorIs(t, err, driven.ErrNotFound)
	_, err = repo.GetByStripeCustomer(ctx, "")
	require.ErrorIs(t, err, driven.ErrNotFound)
}

func TestSubscriptionRepo_UpsertAndStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepo(db)
	ctx := context.Background()

	end := time.Date(2026, 11, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, model.Subscription{
		ID: "s1", UserID: "u1", StripeSubscriptionID: "sub_1", StripeCustomerID: "cus_1",
		Tier: model.TierPro, Status: model.SubscriptionActive, CurrentPeriodEnd: end,
	}))

	// A second upsert for the same user replaces the row but keeps its id.
	require.NoError(t, repo.Upsert(ctx, model.Subscription{
		ID: "s2", UserID: "u1", StripeSubscriptionID: "sub_1", StripeCustomerID: "cus_1",
		Tier: model.TierBusiness, Status: model.SubscriptionActive, CancelAtPeriodEnd: true, CurrentPeriodEnd: end,
	}))

	sub, err := repo.GetByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sub.ID)
	assert.Equal(t, model.TierBusiness, sub.Tier)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, end, sub.CurrentPeriodEnd)

	require.NoError(t, repo.SetStatus(ctx, "sub_1", model.SubscriptionPastDue))
	sub, err = repo.GetByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionPastDue, sub.Status)

	require.ErrorIs(t, repo.SetStatus(ctx, "sub_missing", model.SubscriptionCanceled), driven.ErrNotFound)
	_, err = repo.GetByUser(ctx, "u2")
	require.ErrorIs(t, err, driven.ErrNotFound)
}

func TestPaymentRepo_UniquePerInvoiceStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepo(db)
	ctx := context.Background()

	base := model.Payment{
		UserID: "u1", InvoiceID: "in_1", AmountCents: 2900, Currency: "usd",
		Status: model.PaymentSucceeded, CreatedAt: time.Now(),
	}

	first := base
	first.ID, first.EventID = "p1", "evt_1"
	require.NoError(t, repo.Record(ctx, first))

	dup := base
	dup.ID, dup.EventID = "p2", "evt_2"
	require.ErrorIs(t, repo.Record(ctx, dup), driven.ErrAlreadyExists)

	failed := base
	failed.ID, failed.EventID, failed.Status = "p3", "evt_3", model.PaymentFailed
	require.NoError(t, repo.Record(ctx, failed))

	payments, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestEventLedger_ClaimRelease(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewEventLedger(db)
	ctx := context.Background()

	ok, err := ledger.Claim(ctx, "evt_1", model.EventCheckoutCompleted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.Claim(ctx, "evt_1", model.EventCheckoutCompleted)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ledger.Release(ctx, "evt_1"))
	require.NoError(t, ledger.Release(ctx, "evt_unknown"))

	ok, err = ledger.Claim(ctx, "evt_1", model.EventCheckoutCompleted)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPayoutRepo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPayoutRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.PayoutAccount{UserID: "u1", StripeAccountID: "acct_1"}))

	a, err := repo.GetByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.PayoutPending, a.Status)

	require.NoError(t, repo.Upsert(ctx, model.PayoutAccount{
		UserID: "u1", StripeAccountID: "acct_1",
		ChargesEnabled: true, PayoutsEnabled: true, DetailsSubmitted: true, Status: model.PayoutEnabled,
	}))

	a, err = repo.GetByStripeAccount(ctx, "acct_1")
	require.NoError(t, err)
	assert.True(t, a.PayoutsEnabled)
	assert.Equal(t, model.PayoutEnabled, a.Status)

	err = repo.Upsert(ctx, model.PayoutAccount{UserID: "u2", StripeAccountID: "acct_1"})
	require.ErrorIs(t, err, driven.ErrAlreadyExists)

	_, err = repo.GetByStripeAccount(ctx, "acct_missing")
	require.ErrorIs(t, err, driven.ErrNotFound)
}
