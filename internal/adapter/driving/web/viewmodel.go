package web

import (
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	vm "github.com/automatrixhq/automatrix/internal/adapter/driving/web/viewmodel"
	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
)

const (
	dateLayout     = "Jan 2, 2006"
	dateTimeLayout = "Jan 2, 2006 15:04 MST"
	excerptRunes   = 200
)

var planCatalog = []struct {
	tier     model.Tier
	name     string
	price    string
	features []string
}{
	{model.TierFree, "Free", "$0", []string{"Onboarding assistant", "Free workflow templates", "Mission board"}},
	{model.TierPro, "Pro", "$29 / month", []string{"Everything in Free", "Pro workflow templates", "Agency workspace"}},
	{model.TierBusiness, "Business", "$99 / month", []string{"Everything in Pro", "Business workflow templates", "Priority support"}},
}

func toPricingViewModel(current, upgrade model.Tier, csrf string, configured bool) vm.PricingViewModel {
	plans := make([]vm.PlanViewModel, 0, len(planCatalog))
	for _, p := range planCatalog {
		plans = append(plans, vm.PlanViewModel{
			Tier:        string(p.tier),
			Name:        p.name,
			Price:       p.price,
			Features:    p.features,
			Current:     p.tier == current,
			Highlighted: p.tier == upgrade,
			Purchasable: configured && p.tier.Paid() && p.tier.Rank() > current.Rank(),
		})
	}
	return vm.PricingViewModel{
		Plans:      plans,
		Upgrade:    string(upgrade),
		CSRFToken:  csrf,
		Configured: configured,
	}
}

func toWorkflowCard(wf model.Workflow, current model.Tier) vm.WorkflowCardViewModel {
	return vm.WorkflowCardViewModel{
		Slug:         wf.Slug,
		Title:        wf.Title,
		Category:     wf.Category,
		RequiredTier: string(wf.RequiredTier),
		NodeCount:    wf.NodeCount,
		Downloads:    wf.Downloads,
		DetailPath:   "/workflows/" + wf.Slug,
		DownloadPath: "/api/v1/workflows/" + wf.Slug + "/download",
		Locked:       !application.TierSatisfies(wf.RequiredTier, current),
	}
}

func toWorkflowDetail(wf model.Workflow, current model.Tier) vm.WorkflowDetailViewModel {
	return vm.WorkflowDetailViewModel{
		WorkflowCardViewModel: toWorkflowCard(wf, current),
		DescriptionHTML:       template.HTML(RenderMarkdown(wf.Description)), //nolint:gosec // sanitized by bluemonday
	}
}

func toBlogPost(p model.BlogPost, full bool) vm.BlogPostViewModel {
	post := vm.BlogPostViewModel{
		Slug:        p.Slug,
		Title:       p.Title,
		Path:        "/blog/" + p.Slug,
		PublishedAt: formatDate(p.PublishedAt),
	}
	if full {
		post.BodyHTML = template.HTML(RenderMarkdown(p.Body)) //nolint:gosec // sanitized by bluemonday
	} else {
		post.Excerpt = excerpt(p.Body)
	}
	return post
}

// excerpt returns the first paragraph of body that is not a heading,
// truncated on a rune boundary.
func excerpt(body string) string {
	for _, para := range strings.Split(body, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" || strings.HasPrefix(para, "#") {
			continue
		}
		para = strings.Join(strings.Fields(para), " ")
		if utf8.RuneCountInString(para) <= excerptRunes {
			return para
		}
		return string([]rune(para)[:excerptRunes]) + "…"
	}
	return ""
}

func toDashboardViewModel(tier model.Tier, sub *model.Subscription, checkout, csrf string) vm.DashboardViewModel {
	d := vm.DashboardViewModel{
		Tier:           string(tier),
		CheckoutResult: checkout,
		CSRFToken:      csrf,
	}
	if sub != nil {
		d.SubscriptionStatus = string(sub.Status)
		d.RenewsOn = formatDate(sub.CurrentPeriodEnd)
		d.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	}
	return d
}

func toAgencyViewModel(o model.AgencyOverview, clients []model.Client, tasks []model.Task, meetings []model.Meeting, now time.Time) vm.AgencyViewModel {
	a := vm.AgencyViewModel{
		Clients:          o.Clients,
		OpenTasks:        o.OpenTasks,
		UpcomingMeetings: o.UpcomingMeetings,
		Contacts:         o.Contacts,
		Warnings:         o.Warnings,
	}
	for _, c := range clients {
		a.ClientRows = append(a.ClientRows, vm.ClientRowViewModel{
			Name:    c.Name,
			Company: c.Company,
			Email:   c.Email,
			Status:  c.Status,
		})
	}
	for _, t := range tasks {
		a.TaskRows = append(a.TaskRows, vm.TaskRowViewModel{
			Title:    t.Title,
			Status:   strings.ReplaceAll(string(t.Status), "_", " "),
			Priority: t.Priority,
			Due:      formatDate(t.DueAt),
			Overdue:  !t.DueAt.IsZero() && t.DueAt.Before(now) && t.Status != model.TaskDone,
		})
	}
	for _, m := range meetings {
		a.MeetingRows = append(a.MeetingRows, vm.MeetingRowViewModel{
			Title:    m.Title,
			When:     m.StartsAt.UTC().Format(dateTimeLayout),
			Duration: fmt.Sprintf("%d min", m.DurationMinutes),
			Location: m.Location,
		})
	}
	return a
}

func toProjectCard(p model.Project, viewerID string, bidCount int) vm.ProjectCardViewModel {
	own := p.OwnerID == viewerID
	return vm.ProjectCardViewModel{
		ID:          p.ID,
		Title:       p.Title,
		Budget:      formatCents(p.BudgetCents),
		Skills:      p.Skills,
		Status:      string(p.Status),
		Posted:      formatDate(p.CreatedAt),
		Own:         own,
		CanBid:      !own && p.Status == model.ProjectOpen,
		BidPath:     "/app/missions/" + p.ID + "/bids",
		BidCount:    bidCount,
		Description: template.HTML(RenderMarkdown(p.Description)), //nolint:gosec // sanitized by bluemonday
	}
}

// formatCents renders an amount in cents as dollars with thousands separators.
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), cents%100)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
