package web

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	httphandler "github.com/automatrixhq/automatrix/internal/adapter/driving/http"
	vm "github.com/automatrixhq/automatrix/internal/adapter/driving/web/viewmodel"
	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

const maxFormBytes = 16 << 10

var bidResults = map[string]vm.Flash{
	"placed":    {Kind: "info", Message: "Bid placed. The owner will be notified."},
	"duplicate": {Kind: "warning", Message: "You already bid on that project."},
	"closed":    {Kind: "warning", Message: "That project is no longer taking bids."},
	"own":       {Kind: "warning", Message: "You cannot bid on your own project."},
	"invalid":   {Kind: "error", Message: "Enter a positive amount in US dollars."},
	"missing":   {Kind: "error", Message: "That project no longer exists."},
}

func identity(r *http.Request) model.Identity {
	id, _ := httphandler.IdentityFrom(r.Context())
	return id
}

// parseForm bounds the body and checks the CSRF token.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "That form could not be read.")
		return false
	}
	if !validateCSRF(r) {
		h.logger.Warn("csrf validation failed", "path", r.URL.Path)
		h.renderError(w, r, http.StatusForbidden, "Your session expired. Reload the page and try again.")
		return false
	}
	return true
}

// Checkout redirects to a hosted checkout for the posted tier.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	tier, err := model.ParseTier(r.PostFormValue("tier"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Unknown plan.")
		return
	}

	target, err := h.svc.Billing.StartCheckout(r.Context(), identity(r), tier)
	if errors.Is(err, application.ErrSubscriptionActive) {
		target, err = h.svc.Billing.OpenPortal(r.Context(), identity(r))
	}
	if err != nil {
		h.fail(w, r, "start checkout", err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Portal redirects to the hosted billing portal.
func (h *Handler) Portal(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	target, err := h.svc.Billing.OpenPortal(r.Context(), identity(r))
	if err != nil {
		h.fail(w, r, "open portal", err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Connect redirects to payout-account onboarding.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	target, err := h.svc.Billing.StartConnectOnboarding(r.Context(), identity(r))
	if err != nil {
		h.fail(w, r, "start connect onboarding", err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// PlaceBid records a bid from the mission-board form and redirects back with
// the outcome.
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	cents, ok := parseDollars(r.PostFormValue("amount"))
	if !ok {
		http.Redirect(w, r, "/app/missions?bid=invalid", http.StatusSeeOther)
		return
	}

	_, err := h.svc.Missions.PlaceBid(r.Context(), identity(r).UserID, r.PathValue("id"), application.BidInput{
		AmountCents: cents,
		Message:     r.PostFormValue("message"),
	})

	result := "placed"
	switch {
	case err == nil:
	case errors.Is(err, driven.ErrAlreadyExists):
		result = "duplicate"
	case errors.Is(err, application.ErrProjectClosed):
		result = "closed"
	case errors.Is(err, application.ErrForbidden):
		result = "own"
	case errors.Is(err, application.ErrInvalidInput):
		result = "invalid"
	case errors.Is(err, driven.ErrNotFound):
		result = "missing"
	default:
		h.logger.Error("place bid failed", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Your bid could not be saved. Please try again.")
		return
	}
	http.Redirect(w, r, "/app/missions?bid="+result, http.StatusSeeOther)
}

// parseDollars converts a positive dollar amount such as "1,250.50" to cents.
func parseDollars(s string) (int64, bool) {
	s = strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), "$")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || v > 1e9 {
		return 0, false
	}
	return int64(math.Round(v * 100)), true
}
