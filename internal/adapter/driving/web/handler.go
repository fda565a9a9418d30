// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	httphandler "github.com/automatrixhq/automatrix/internal/adapter/driving/http"
	"github.com/automatrixhq/automatrix/internal/adapter/driving/web/templates"
	"github.com/automatrixhq/automatrix/internal/adapter/driving/web/templates/pages"
	vm "github.com/automatrixhq/automatrix/internal/adapter/driving/web/viewmodel"
	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Services bundles the application services the pages read from.
type Services struct {
	Access    *application.AccessService
	Billing   *application.BillingService
	Downloads *application.DownloadService
	Blog      *application.BlogService
	Agency    *application.AgencyService
	Missions  *application.MissionService
}

// Config holds the settings the pages need to build absolute links.
type Config struct {
	AuthURL   string   // Hosted auth base URL; empty disables sign-in.
	PublicURL string   // Base URL the auth service redirects back to.
	Providers []string // OAuth providers offered on the login page.
	Secure    bool     // Mark cookies HTTPS-only.
}

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	svc    Services
	cfg    Config
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(svc Services, cfg Config, logger *slog.Logger) *Handler {
	cfg.AuthURL = strings.TrimSuffix(cfg.AuthURL, "/")
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")
	return &Handler{svc: svc, cfg: cfg, logger: logger}
}

// nav resolves the header state for the caller. A failed tier lookup shows
// the free plan rather than failing the page.
func (h *Handler) nav(r *http.Request, active string) (vm.Nav, model.Tier) {
	id, ok := httphandler.IdentityFrom(r.Context())
	if !ok {
		return vm.Nav{Active: active}, model.TierFree
	}

	tier, err := h.svc.Access.CurrentTier(r.Context(), id.UserID)
	if err != nil {
		h.logger.Warn("tier lookup failed", "user", id.UserID, "error", err)
		tier = model.TierFree
	}
	return vm.Nav{SignedIn: true, Email: id.Email, Tier: string(tier), Active: active}, tier
}

// render writes body inside the layout with the given status.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title string, nav vm.Nav, flash *vm.Flash, body templ.Component) {
	layout := templates.Layout(title, nav, flash, body)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", "title", title, "error", err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	nav, _ := h.nav(r, "")
	h.render(w, r, status, http.StatusText(status), nav, nil, pages.Error(status, message))
}

// fail maps a service error from a form action to an error page.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var tierErr *application.TierRequiredError
	switch {
	case errors.As(err, &tierErr):
		http.Redirect(w, r, httphandler.PricingURL(tierErr.Required), http.StatusSeeOther)
	case errors.Is(err, driven.ErrNotConfigured):
		h.logger.Warn("service not configured", "op", op, "error", err)
		h.renderError(w, r, http.StatusServiceUnavailable, "This feature is temporarily unavailable, please try again later.")
	case errors.Is(err, application.ErrInvalidInput), errors.Is(err, application.ErrTierNotPurchasable):
		h.renderError(w, r, http.StatusBadRequest, "That request could not be processed.")
	case errors.Is(err, application.ErrNoBillingAccount):
		http.Redirect(w, r, "/pricing", http.StatusSeeOther)
	case errors.Is(err, driven.ErrNotFound):
		h.renderError(w, r, http.StatusNotFound, "Not found.")
	default:
		h.logger.Error(op+" failed", "error", err)
		h.renderError(w, r, http.StatusBadGateway, "Something went wrong talking to our payment provider. Please try again.")
	}
}

// Home renders the landing page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	nav, _ := h.nav(r, "")
	h.render(w, r, http.StatusOK, "Home", nav, nil, pages.Home(nav.SignedIn))
}

var loginErrors = map[string]string{
	"denied":   "Sign-in was canceled.",
	"exchange": "Your sign-in link expired or was already used. Please try again.",
}

// Login starts a PKCE sign-in: it stores a fresh code verifier in a cookie and
// links each provider to the hosted authorize endpoint.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	next := httphandler.SanitizeNext(r.URL.Query().Get("next"))
	if _, ok := httphandler.IdentityFrom(r.Context()); ok {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	m := vm.LoginViewModel{
		Enabled: h.cfg.AuthURL != "",
		Error:   loginErrors[r.URL.Query().Get("error")],
	}
	if m.Enabled {
		verifier, challenge, err := httphandler.NewPKCE()
		if err != nil {
			h.logger.Error("generate pkce failed", "error", err)
			h.renderError(w, r, http.StatusInternalServerError, "Sign-in is temporarily unavailable.")
			return
		}
		httphandler.SetPKCECookie(w, verifier, h.cfg.Secure)

		redirect := h.cfg.PublicURL + "/auth/callback?next=" + url.QueryEscape(next)
		for _, p := range h.cfg.Providers {
			q := url.Values{
				"provider":              {p},
				"redirect_to":           {redirect},
				"code_challenge":        {challenge},
				"code_challenge_method": {"s256"},
			}
			m.Providers = append(m.Providers, vm.LoginProviderViewModel{
				Name: providerLabel(p),
				URL:  h.cfg.AuthURL + "/auth/v1/authorize?" + q.Encode(),
			})
		}
	}

	nav, _ := h.nav(r, "")
	h.render(w, r, http.StatusOK, "Sign in", nav, nil, pages.Login(m))
}

func providerLabel(p string) string {
	switch strings.ToLower(p) {
	case "github":
		return "GitHub"
	case "google":
		return "Google"
	default:
		if p == "" {
			return p
		}
		return strings.ToUpper(p[:1]) + p[1:]
	}
}
