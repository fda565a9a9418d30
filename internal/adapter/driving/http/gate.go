package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// TierChecker is the part of the access service the gate needs.
type TierChecker interface {
	Require(ctx context.Context, userID string, required model.Tier) error
}

// PricingURL is where callers below a route's tier are sent.
func PricingURL(required model.Tier) string {
	return "/pricing?upgrade=" + url.QueryEscape(string(required))
}

// Gate wraps next so only callers holding at least required may reach it.
// Anonymous callers go to the login page; insufficient plans go to pricing.
func Gate(access TierChecker, required model.Tier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
				return
			}

			err := access.Require(r.Context(), id.UserID, required)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, application.ErrTierRequired):
				http.Redirect(w, r, PricingURL(required), http.StatusSeeOther)
			default:
				logger.Error("tier lookup failed", "user", id.UserID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		})
	}
}
