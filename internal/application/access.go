package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// TierSatisfies reports whether a caller on the current tier may access a
// resource requiring the required tier.
func TierSatisfies(required, current model.Tier) bool {
	return current.Rank() >= required.Rank()
}

// AccessService resolves the plan tier of a caller.
type AccessService struct {
	profileStore driven.ProfileStore
}

// NewAccessService creates an AccessService.
func NewAccessService(profileStore driven.ProfileStore) *AccessService {
	return &AccessService{profileStore: profileStore}
}

// CurrentTier returns the caller's tier. A user without a profile row is on free.
func (s *AccessService) CurrentTier(ctx context.Context, userID string) (model.Tier, error) {
	profile, err := s.profileStore.Get(ctx, userID)
	if errors.Is(err, driven.ErrNotFound) {
		return model.TierFree, nil
	}
	if err != nil {
		return "", fmt.Errorf("load profile %s: %w", userID, err)
	}
	if !profile.Tier.Valid() {
		return model.TierFree, nil
	}
	return profile.Tier, nil
}

// Require returns a *TierRequiredError when the caller's tier is below required.
func (s *AccessService) Require(ctx context.Context, userID string, required model.Tier) error {
	current, err := s.CurrentTier(ctx, userID)
	if err != nil {
		return err
	}
	if !TierSatisfies(required, current) {
		return &TierRequiredError{Required: required, Current: current}
	}
	return nil
}

// SignIn records the profile of a freshly authenticated user.
func (s *AccessService) SignIn(ctx context.Context, session model.Session) (model.Profile, error) {
	profile, err := s.profileStore.Ensure(ctx, model.Profile{
		ID:       session.Identity.UserID,
		Email:    session.Identity.Email,
		FullName: session.FullName,
		Tier:     model.TierFree,
	})
	if err != nil {
		return model.Profile{}, fmt.Errorf("ensure profile %s: %w", session.Identity.UserID, err)
	}
	return profile, nil
}

// SetTier overrides a user's plan tier outside of billing, for support and
// administration.
func (s *AccessService) SetTier(ctx context.Context, userID string, tier model.Tier) error {
	if userID == "" {
		return invalid("user id is required")
	}
	if !tier.Valid() {
		return invalid("unknown tier %q", tier)
	}
	if err := s.profileStore.SetTier(ctx, userID, tier); err != nil {
		return fmt.Errorf("set tier for %s: %w", userID, err)
	}
	return nil
}
