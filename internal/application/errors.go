// Package application contains use-case orchestration services.
package application

import (
	"errors"
	"fmt"

	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// Sentinel errors returned by application services. Handlers map them to
// HTTP statuses with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrNoBillingAccount   = errors.New("no billing account")
	ErrUnresolvableEvent  = errors.New("payment event cannot be matched to a user or tier")
	ErrPathTraversal      = errors.New("path escapes workflows directory")
	ErrProjectClosed      = errors.New("project is not open for bids")
	ErrTierNotPurchasable = errors.New("tier cannot be purchased")
	ErrTierRequired       = errors.New("higher tier required")
	ErrSubscriptionActive = errors.New("subscription already active, change plans in the billing portal")
)

// TierRequiredError reports that the caller's plan is below Required.
type TierRequiredError struct {
	Required model.Tier
	Current  model.Tier
}

func (e *TierRequiredError) Error() string {
	return fmt.Sprintf("tier %s required, have %s", e.Required, e.Current)
}

func (e *TierRequiredError) Unwrap() error {
	return ErrTierRequired
}

// invalid wraps ErrInvalidInput with a user-facing reason.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
