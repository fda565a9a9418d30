package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
)

func TestTierSatisfies(t *testing.T) {
	tests := []struct {
		required model.Tier
		current  model.Tier
		want     bool
	}{
		{model.TierFree, model.TierFree, true},
		{model.TierPro, model.TierFree, false},
		{model.TierPro, model.TierPro, true},
		{model.TierPro, model.TierBusiness, true},
		{model.TierBusiness, model.TierPro, false},
		{model.TierBusiness, model.TierBusiness, true},
		{model.TierPro, "gold", false},
		{model.TierFree, "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.required)+"/"+string(tt.current), func(t *testing.T) {
			assert.Equal(t, tt.want, application.TierSatisfies(tt.required, tt.current))
		})
	}
}

func TestAccessCurrentTier(t *testing.T) {
	store := newMockProfileStore(
		model.Profile{ID: "pro-user", Tier: model.TierPro},
		model.Profile{ID: "odd-user", Tier: "legacy"},
	)
	svc := application.NewAccessService(store)
	ctx := context.Background()

	tier, err := svc.CurrentTier(ctx, "pro-user")
	require.NoError(t, err)
	assert.Equal(t, model.TierPro, tier)

	tier, err = svc.CurrentTier(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, model.TierFree, tier)

	tier, err = svc.CurrentTier(ctx, "odd-user")
	require.NoError(t, err)
	assert.Equal(t, model.TierFree, tier)

	store.getErr = errors.New("disk gone")
	_, err = svc.CurrentTier(ctx, "pro-user")
	require.Error(t, err)
}

func TestAccessRequire(t *testing.T) {
	svc := application.NewAccessService(newMockProfileStore(model.Profile{ID: "u1", Tier: model.TierPro}))
	ctx := context.Background()

	require.NoError(t, svc.Require(ctx, "u1", model.TierPro))

	err := svc.Require(ctx, "u1", model.TierBusiness)
	require.ErrorIs(t, err, application.ErrTierRequired)

	var tierErr *application.TierRequiredError
	require.ErrorAs(t, err, &tierErr)
	assert.Equal(t, model.TierBusiness, tierErr.Required)
	assert.Equal(t, model.TierPro, tierErr.Current)
}

func TestAccessSignInKeepsTier(t *testing.T) {
	store := newMockProfileStore(model.Profile{ID: "u1", Tier: model.TierBusiness})
	svc := application.NewAccessService(store)

	p, err := svc.SignIn(context.Background(), model.Session{
		Identity: model.Identity{UserID: "u1", Email: "a@example.com"},
		FullName: "Ada",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TierBusiness, p.Tier)
	assert.Equal(t, "a@example.com", p.Email)

	p, err = svc.SignIn(context.Background(), model.Session{Identity: model.Identity{UserID: "u2"}})
	require.NoError(t, err)
	assert.Equal(t, model.TierFree, p.Tier)
}

func TestAccessSetTier(t *testing.T) {
	store := newMockProfileStore()
	svc := application.NewAccessService(store)
	ctx := context.Background()

	require.NoError(t, svc.SetTier(ctx, "u1", model.TierPro))
	assert.Equal(t, model.TierPro, store.tierOf("u1"))

	require.ErrorIs(t, svc.SetTier(ctx, "u1", "gold"), application.ErrInvalidInput)
	require.ErrorIs(t, svc.SetTier(ctx, "", model.TierPro), application.ErrInvalidInput)
}
