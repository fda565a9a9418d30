package model

import (
	"fmt"
	"strings"
)

// Tier is a subscription plan level gating feature access.
type Tier string

const (
	TierFree     Tier = "free"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

// AllTiers lists the plans in ascending rank order.
var AllTiers = []Tier{TierFree, TierPro, TierBusiness}

// Rank returns the static position of the tier. Unknown tiers rank with free.
func (t Tier) Rank() int {
	switch t {
	case TierPro:
		return 1
	case TierBusiness:
		return 2
	default:
		return 0
	}
}

// Valid reports whether t is one of the known plans.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierBusiness:
		return true
	default:
		return false
	}
}

// Paid reports whether the tier requires a subscription.
func (t Tier) Paid() bool {
	return t == TierPro || t == TierBusiness
}

// ParseTier normalizes s and returns the matching tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}
