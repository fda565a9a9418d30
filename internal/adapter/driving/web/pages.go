package web

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/automatrixhq/automatrix/internal/adapter/driving/web/templates/pages"
	vm "github.com/automatrixhq/automatrix/internal/adapter/driving/web/viewmodel"
	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

const listUnavailable = "Some data could not be loaded right now. Showing what we have."

func warning(msg string) *vm.Flash {
	return &vm.Flash{Kind: "warning", Message: msg}
}

// Pricing renders the plans. ?upgrade=<tier> highlights the plan a gated
// page asked for.
func (h *Handler) Pricing(w http.ResponseWriter, r *http.Request) {
	nav, tier := h.nav(r, "pricing")
	token, err := csrfToken(w, r, h.cfg.Secure)
	if err != nil {
		h.logger.Error("csrf token failed", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Please try again.")
		return
	}

	upgrade, _ := model.ParseTier(r.URL.Query().Get("upgrade"))
	m := toPricingViewModel(tier, upgrade, token, h.svc.Billing.Configured())
	m.SignedIn = nav.SignedIn
	if nav.SignedIn {
		sub, err := h.svc.Billing.CurrentSubscription(r.Context(), identity(r).UserID)
		if err != nil {
			h.logger.Error("load subscription failed", "error", err)
		}
		m.Subscribed = sub != nil && sub.StripeSubscriptionID != "" && sub.Status.Entitled()
	}
	h.render(w, r, http.StatusOK, "Pricing", nav, nil, pages.Pricing(m))
}

// Workflows renders the marketplace, optionally one ?category=.
func (h *Handler) Workflows(w http.ResponseWriter, r *http.Request) {
	nav, tier := h.nav(r, "workflows")
	category := r.URL.Query().Get("category")

	var flash *vm.Flash
	all, err := h.svc.Downloads.List(r.Context(), model.WorkflowFilter{})
	if err != nil {
		h.logger.Error("list workflows failed", "error", err)
		flash = warning(listUnavailable)
	}

	m := vm.WorkflowListViewModel{Category: category}
	for _, wf := range all {
		if !slices.Contains(m.Categories, wf.Category) {
			m.Categories = append(m.Categories, wf.Category)
		}
		if category == "" || wf.Category == category {
			m.Workflows = append(m.Workflows, toWorkflowCard(wf, tier))
		}
	}
	slices.Sort(m.Categories)

	h.render(w, r, http.StatusOK, "Workflows", nav, flash, pages.Workflows(m))
}

// WorkflowDetail renders one workflow with its markdown description.
func (h *Handler) WorkflowDetail(w http.ResponseWriter, r *http.Request) {
	nav, tier := h.nav(r, "workflows")

	wf, err := h.svc.Downloads.Get(r.Context(), r.PathValue("slug"))
	if errors.Is(err, driven.ErrNotFound) {
		h.renderError(w, r, http.StatusNotFound, "That workflow does not exist.")
		return
	}
	if err != nil {
		h.logger.Error("get workflow failed", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Please try again.")
		return
	}

	h.render(w, r, http.StatusOK, wf.Title, nav, nil, pages.Workflow(toWorkflowDetail(wf, tier)))
}

// BlogIndex lists the latest posts.
func (h *Handler) BlogIndex(w http.ResponseWriter, r *http.Request) {
	nav, _ := h.nav(r, "blog")

	var flash *vm.Flash
	posts, err := h.svc.Blog.List(r.Context())
	if err != nil {
		h.logger.Error("list blog posts failed", "error", err)
		flash = warning(listUnavailable)
	}

	views := make([]vm.BlogPostViewModel, 0, len(posts))
	for _, p := range posts {
		views = append(views, toBlogPost(p, false))
	}
	h.render(w, r, http.StatusOK, "Blog", nav, flash, pages.BlogIndex(views))
}

// BlogPost renders a published post.
func (h *Handler) BlogPost(w http.ResponseWriter, r *http.Request) {
	nav, _ := h.nav(r, "blog")

	post, err := h.svc.Blog.Get(r.Context(), r.PathValue("slug"))
	if errors.Is(err, driven.ErrNotFound) {
		h.renderError(w, r, http.StatusNotFound, "That post does not exist.")
		return
	}
	if err != nil {
		h.logger.Error("get blog post failed", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Please try again.")
		return
	}

	h.render(w, r, http.StatusOK, post.Title, nav, nil, pages.BlogPost(toBlogPost(post, true)))
}

// Dashboard renders the signed-in landing page.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	nav, tier := h.nav(r, "dashboard")
	id := identity(r)

	var flash *vm.Flash
	sub, err := h.svc.Billing.CurrentSubscription(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("load subscription failed", "user", id.UserID, "error", err)
		flash = warning("Your subscription details are temporarily unavailable.")
	}
	token, err := csrfToken(w, r, h.cfg.Secure)
	if err != nil {
		h.logger.Error("csrf token failed", "error", err)
	}

	m := toDashboardViewModel(tier, sub, r.URL.Query().Get("checkout"), token)
	h.render(w, r, http.StatusOK, "Dashboard", nav, flash, pages.Dashboard(m))
}

// Agency renders the agency workspace. Each list that fails to load is
// shown empty with a warning.
func (h *Handler) Agency(w http.ResponseWriter, r *http.Request) {
	nav, _ := h.nav(r, "agency")
	ctx := r.Context()
	ownerID := identity(r).UserID

	overview := h.svc.Agency.Overview(ctx, ownerID)

	clients, err := h.svc.Agency.ListClients(ctx, ownerID)
	if err != nil {
		h.logger.Error("list clients failed", "error", err)
		overview.Warnings = append(overview.Warnings, "client list is temporarily unavailable")
	}
	tasks, err := h.svc.Agency.ListTasks(ctx, ownerID, "")
	if err != nil {
		h.logger.Error("list tasks failed", "error", err)
		overview.Warnings = append(overview.Warnings, "task list is temporarily unavailable")
	}
	meetings, err := h.svc.Agency.UpcomingMeetings(ctx, ownerID)
	if err != nil {
		h.logger.Error("list meetings failed", "error", err)
		overview.Warnings = append(overview.Warnings, "meeting list is temporarily unavailable")
	}

	m := toAgencyViewModel(overview, clients, tasks, meetings, time.Now())
	h.render(w, r, http.StatusOK, "Agency", nav, nil, pages.Agency(m))
}

// Missions renders the mission board.
func (h *Handler) Missions(w http.ResponseWriter, r *http.Request) {
	nav, _ := h.nav(r, "missions")
	ctx := r.Context()
	viewer := identity(r).UserID

	var flash *vm.Flash
	if msg, ok := bidResults[r.URL.Query().Get("bid")]; ok {
		flash = &msg
	}

	open, err := h.svc.Missions.ListOpen(ctx)
	if err != nil {
		h.logger.Error("list open projects failed", "error", err)
		flash = warning(listUnavailable)
	}
	mine, err := h.svc.Missions.ListMine(ctx, viewer)
	if err != nil {
		h.logger.Error("list own projects failed", "error", err)
		flash = warning(listUnavailable)
	}

	token, err := csrfToken(w, r, h.cfg.Secure)
	if err != nil {
		h.logger.Error("csrf token failed", "error", err)
	}

	m := vm.MissionsViewModel{
		CSRFToken:  token,
		Connect:    r.URL.Query().Get("connect"),
		Configured: h.svc.Billing.Configured(),
	}
	for _, p := range open {
		if p.OwnerID != viewer {
			m.Open = append(m.Open, toProjectCard(p, viewer, 0))
		}
	}
	for _, p := range mine {
		bids, err := h.svc.Missions.ListBids(ctx, viewer, p.ID)
		if err != nil {
			h.logger.Warn("count bids failed", "project", p.ID, "error", err)
		}
		m.Mine = append(m.Mine, toProjectCard(p, viewer, len(bids)))
	}

	h.render(w, r, http.StatusOK, "Missions", nav, flash, pages.Missions(m))
}
