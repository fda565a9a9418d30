package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTier_Rank(t *testing.T) {
	assert.Less(t, TierFree.Rank(), TierPro.Rank())
	assert.Less(t, TierPro.Rank(), TierBusiness.Rank())
	assert.Equal(t, TierFree.Rank(), Tier("platinum").Rank(), "unknown tiers rank as free")
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("  Pro ")
	require.NoError(t, err)
	assert.Equal(t, TierPro, tier)

	_, err = ParseTier("enterprise")
	assert.Error(t, err)
}

func TestParseSubscriptionStatus(t *testing.T) {
	tests := []struct {
		in   string
		want SubscriptionStatus
	}{
		{"active", SubscriptionActive},
		{"trialing", SubscriptionTrialing},
		{"past_due", SubscriptionPastDue},
		{"canceled", SubscriptionCanceled},
		{"incomplete_expired", SubscriptionCanceled},
		{"unpaid", SubscriptionUnpaid},
		{"paused", SubscriptionIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSubscriptionStatus(tt.in))
		})
	}
}

func TestSubscriptionStatus_Entitled(t *testing.T) {
	assert.True(t, SubscriptionActive.Entitled())
	assert.True(t, SubscriptionPastDue.Entitled())
	assert.False(t, SubscriptionCanceled.Entitled())
	assert.False(t, SubscriptionUnpaid.Entitled())
}

func TestDerivePayoutStatus(t *testing.T) {
	assert.Equal(t, PayoutEnabled, DerivePayoutStatus(true, true, true))
	assert.Equal(t, PayoutRestricted, DerivePayoutStatus(false, false, true))
	assert.Equal(t, PayoutPending, DerivePayoutStatus(false, false, false))
}
