// Package httphandler is the JSON API driving adapter: authentication
// callback, chat proxy, billing sessions, payment webhook, workflow downloads
// and the agency and mission-board APIs.
package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Services bundles the application services the API calls. Auth and Gateway
// are nil when the hosted auth service or payment processor is not
// configured.
type Services struct {
	Access    *application.AccessService
	Billing   *application.BillingService
	Chat      *application.ChatService
	Downloads *application.DownloadService
	Agency    *application.AgencyService
	Missions  *application.MissionService
	Auth      driven.AuthProvider
	Gateway   driven.PaymentGateway
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	svc      Services
	sessions *Sessions
	limiter  *ChatLimiter
	metrics  *Metrics
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(svc Services, sessions *Sessions, limiter *ChatLimiter, metrics *Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		sessions: sessions,
		limiter:  limiter,
		metrics:  metrics,
		validate: newValidator(),
		logger:   logger,
	}
}

// RegisterAPIRoutes registers the JSON API, auth and metrics routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("GET /metrics", h.metrics.Handler())

	mux.HandleFunc("GET /auth/callback", h.AuthCallback)
	mux.HandleFunc("POST /auth/signout", h.SignOut)

	mux.Handle("POST /api/v1/chat", RequireAuth(h.limiter.Middleware(http.HandlerFunc(h.SendChat))))
	mux.Handle("GET /api/v1/chat/{sessionID}", RequireAuth(http.HandlerFunc(h.ChatHistory)))

	mux.Handle("POST /api/v1/billing/checkout", RequireAuth(http.HandlerFunc(h.Checkout)))
	mux.Handle("POST /api/v1/billing/portal", RequireAuth(http.HandlerFunc(h.Portal)))
	mux.Handle("POST /api/v1/billing/connect", RequireAuth(http.HandlerFunc(h.Connect)))
	mux.Handle("GET /api/v1/billing/subscription", RequireAuth(http.HandlerFunc(h.Subscription)))
	mux.HandleFunc("POST /api/v1/webhooks/stripe", h.StripeWebhook)

	mux.HandleFunc("GET /api/v1/workflows", h.ListWorkflows)
	mux.Handle("GET /api/v1/workflows/{slug}/download", RequireLogin(http.HandlerFunc(h.DownloadWorkflow)))

	pro := Gate(h.svc.Access, model.TierPro, h.logger)
	mux.Handle("GET /api/v1/agency/overview", pro(http.HandlerFunc(h.AgencyOverview)))
	mux.Handle("GET /api/v1/agency/clients", pro(http.HandlerFunc(h.ListClients)))
	mux.Handle("POST /api/v1/agency/clients", pro(http.HandlerFunc(h.CreateClient)))
	mux.Handle("GET /api/v1/agency/clients/{id}/timeline", pro(http.HandlerFunc(h.ClientTimeline)))
	mux.Handle("GET /api/v1/agency/tasks", pro(http.HandlerFunc(h.ListTasks)))
	mux.Handle("POST /api/v1/agency/tasks", pro(http.HandlerFunc(h.CreateTask)))
	mux.Handle("PATCH /api/v1/agency/tasks/{id}", pro(http.HandlerFunc(h.UpdateTaskStatus)))
	mux.Handle("GET /api/v1/agency/meetings", pro(http.HandlerFunc(h.ListMeetings)))
	mux.Handle("POST /api/v1/agency/meetings", pro(http.HandlerFunc(h.ScheduleMeeting)))
	mux.Handle("GET /api/v1/agency/contacts", pro(http.HandlerFunc(h.ListContacts)))
	mux.Handle("POST /api/v1/agency/contacts", pro(http.HandlerFunc(h.AddContact)))

	mux.Handle("GET /api/v1/missions/projects", RequireAuth(http.HandlerFunc(h.ListOpenProjects)))
	mux.Handle("GET /api/v1/missions/projects/mine", RequireAuth(http.HandlerFunc(h.ListMyProjects)))
	mux.Handle("POST /api/v1/missions/projects", RequireAuth(http.HandlerFunc(h.PostProject)))
	mux.Handle("GET /api/v1/missions/projects/{id}", RequireAuth(http.HandlerFunc(h.GetProject)))
	mux.Handle("GET /api/v1/missions/projects/{id}/bids", RequireAuth(http.HandlerFunc(h.ListBids)))
	mux.Handle("POST /api/v1/missions/projects/{id}/bids", RequireAuth(http.HandlerFunc(h.PlaceBid)))
	mux.Handle("POST /api/v1/missions/projects/{id}/bids/{bidID}/accept", RequireAuth(http.HandlerFunc(h.AcceptBid)))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// identity returns the authenticated caller. Routes behind RequireAuth,
// RequireLogin or Gate always have one.
func identity(r *http.Request) model.Identity {
	id, _ := IdentityFrom(r.Context())
	return id
}

// fail maps a service error to a response. Errors matching no known
// sentinel are logged and answered with fallback, which is 500 for local
// failures and 502 for calls to an external service.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error, fallback int) {
	var tierErr *application.TierRequiredError
	switch {
	case errors.As(err, &tierErr):
		http.Redirect(w, r, PricingURL(tierErr.Required), http.StatusSeeOther)
	case errors.Is(err, application.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrTierNotPurchasable):
		writeError(w, http.StatusBadRequest, "tier cannot be purchased")
	case errors.Is(err, application.ErrPathTraversal):
		h.logger.Warn("rejected workflow path", "op", op, "error", err)
		writeError(w, http.StatusBadRequest, "workflow file unavailable")
	case errors.Is(err, application.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, application.ErrSubscriptionActive):
		writeError(w, http.StatusConflict, "subscription already active, change plans in the billing portal")
	case errors.Is(err, application.ErrNoBillingAccount):
		writeError(w, http.StatusNotFound, "no billing account yet, subscribe first")
	case errors.Is(err, driven.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, driven.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, application.ErrProjectClosed), errors.Is(err, driven.ErrConflict):
		writeError(w, http.StatusConflict, "project is no longer open")
	case errors.Is(err, driven.ErrNotConfigured):
		h.logger.Warn("service not configured", "op", op, "error", err)
		writeError(w, http.StatusServiceUnavailable, "this feature is temporarily unavailable, please try again later")
	default:
		h.logger.Error(op+" failed", "error", err)
		if fallback == http.StatusBadGateway {
			writeError(w, fallback, "upstream service error")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
