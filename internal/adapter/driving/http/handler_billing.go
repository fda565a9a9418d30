package httphandler

import (
	"errors"
	"io"
	"net/http"

	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

const (
	maxWebhookBytes = 1 << 20
	signatureHeader = "Stripe-Signature"
)

// Checkout opens a hosted checkout for the requested tier.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	url, err := h.svc.Billing.StartCheckout(r.Context(), identity(r), model.Tier(req.Tier))
	if err != nil {
		h.fail(w, r, "start checkout", err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, URLResponse{URL: url})
}

// Portal opens the customer portal for the caller's subscription.
func (h *Handler) Portal(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.Billing.OpenPortal(r.Context(), identity(r))
	if err != nil {
		h.fail(w, r, "open portal", err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, URLResponse{URL: url})
}

// Connect starts or resumes payout-account onboarding.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.Billing.StartConnectOnboarding(r.Context(), identity(r))
	if err != nil {
		h.fail(w, r, "start connect onboarding", err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, URLResponse{URL: url})
}

// Subscription returns the caller's tier and subscription state.
func (h *Handler) Subscription(w http.ResponseWriter, r *http.Request) {
	id := identity(r)

	tier, err := h.svc.Access.CurrentTier(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, r, "load tier", err, http.StatusInternalServerError)
		return
	}
	sub, err := h.svc.Billing.CurrentSubscription(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, r, "load subscription", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(tier, sub))
}

// StripeWebhook verifies a payment-processor delivery and reconciles it.
// Nothing is written unless the signature verifies.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.svc.Gateway == nil {
		h.metrics.webhook("unknown", "not_configured")
		writeError(w, http.StatusServiceUnavailable, "payments are not configured")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.metrics.webhook("unknown", "unreadable")
		writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}

	evt, err := h.svc.Gateway.VerifyEvent(payload, r.Header.Get(signatureHeader))
	if err != nil {
		if errors.Is(err, driven.ErrNotConfigured) {
			h.metrics.webhook("unknown", "not_configured")
			writeError(w, http.StatusServiceUnavailable, "payments are not configured")
			return
		}
		h.logger.Warn("webhook rejected", "error", err)
		h.metrics.webhook("unknown", "invalid_signature")
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	err = h.svc.Billing.Reconcile(r.Context(), evt)
	switch {
	case err == nil:
		h.metrics.webhook(string(evt.Kind), "applied")
		writeJSON(w, http.StatusOK, WebhookResponse{Received: true})
	case errors.Is(err, application.ErrUnresolvableEvent):
		h.logger.Warn("webhook event ignored", "event_id", evt.ID, "type", evt.RawType, "error", err)
		h.metrics.webhook(string(evt.Kind), "ignored")
		writeJSON(w, http.StatusAccepted, WebhookResponse{Received: true, Ignored: err.Error()})
	case errors.Is(err, application.ErrInvalidInput):
		h.metrics.webhook(string(evt.Kind), "invalid")
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("webhook reconcile failed", "event_id", evt.ID, "type", evt.RawType, "error", err)
		h.metrics.webhook(string(evt.Kind), "failed")
		writeError(w, http.StatusInternalServerError, "reconcile failed")
	}
}
