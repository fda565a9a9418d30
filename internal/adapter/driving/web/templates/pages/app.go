package pages

import (
	"strings"

	"github.com/a-h/templ"

	"github.com/automatrixhq/automatrix/internal/adapter/driving/web/templates"
	vm "github.com/automatrixhq/automatrix/internal/adapter/driving/web/viewmodel"
)

// Dashboard shows the caller's plan and billing actions.
func Dashboard(m vm.DashboardViewModel) templ.Component {
	return templates.Component(func(b *builder) {
		switch m.CheckoutResult {
		case "success":
			b.Raw(`<div class="banner info">Thanks! Your plan updates as soon as the payment is confirmed.</div>`)
		case "canceled":
			b.Raw(`<div class="banner warning">Checkout canceled. You have not been charged.</div>`)
		}

		b.Raw(`<h1>Dashboard</h1><div class="grid"><div class="card"><h3>Plan</h3><p class="stat">`)
		b.Text(m.Tier)
		b.Raw(`</p>`)
		if m.SubscriptionStatus != "" {
			b.Raw(`<p class="muted">Subscription `)
			b.Text(m.SubscriptionStatus)
			if m.RenewsOn != "" {
				if m.CancelAtPeriodEnd {
					b.Raw(`, ends `)
				} else {
					b.Raw(`, renews `)
				}
				b.Text(m.RenewsOn)
			}
			b.Raw(`</p><form method="post" action="/app/billing/portal">`)
			b.CSRF(m.CSRFToken)
			b.Raw(`<button class="secondary" type="submit">Manage billing</button></form>`)
		} else {
			b.Raw(`<a class="button" href="/pricing">Upgrade</a>`)
		}
		b.Raw(`</div>`)

		b.Raw(`<div class="card"><h3>Onboarding assistant</h3><p class="muted">Ask anything about setting up your first workflow.</p>`)
		b.Raw(`<p><code>POST /api/v1/chat</code></p></div></div>`)
	})
}

// Agency renders the agency workspace overview.
func Agency(m vm.AgencyViewModel) templ.Component {
	return templates.Component(func(b *builder) {
		for _, w := range m.Warnings {
			b.Raw(`<div class="banner warning">`)
			b.Text(w)
			b.Raw(`</div>`)
		}

		b.Raw(`<h1>Agency</h1><div class="grid">`)
		stat(b, "Clients", m.Clients)
		stat(b, "Open tasks", m.OpenTasks)
		stat(b, "Upcoming meetings", m.UpcomingMeetings)
		stat(b, "Contacts", m.Contacts)
		b.Raw(`</div>`)

		b.Raw(`<section class="card"><h3>Clients</h3>`)
		if len(m.ClientRows) == 0 {
			b.Raw(`<p class="muted">No clients yet.</p>`)
		} else {
			b.Raw(`<table><tr><th>Name</th><th>Company</th><th>Email</th><th>Status</th></tr>`)
			for _, c := range m.ClientRows {
				row(b, c.Name, c.Company, c.Email, c.Status)
			}
			b.Raw(`</table>`)
		}
		b.Raw(`</section>`)

		b.Raw(`<section class="card"><h3>Tasks</h3>`)
		if len(m.TaskRows) == 0 {
			b.Raw(`<p class="muted">Nothing to do.</p>`)
		} else {
			b.Raw(`<table><tr><th>Task</th><th>Status</th><th>Priority</th><th>Due</th></tr>`)
			for _, t := range m.TaskRows {
				b.Raw(`<tr><td>`)
				b.Text(t.Title)
				b.Raw(`</td><td>`)
				b.Text(t.Status)
				b.Raw(`</td><td>`)
				b.Int(t.Priority)
				b.Raw(`</td><td`)
				if t.Overdue {
					b.Raw(` class="overdue"`)
				}
				b.Raw(`>`)
				b.Text(t.Due)
				b.Raw(`</td></tr>`)
			}
			b.Raw(`</table>`)
		}
		b.Raw(`</section>`)

		b.Raw(`<section class="card"><h3>Upcoming meetings</h3>`)
		if len(m.MeetingRows) == 0 {
			b.Raw(`<p class="muted">No meetings scheduled.</p>`)
		} else {
			b.Raw(`<table><tr><th>Meeting</th><th>When</th><th>Length</th><th>Where</th></tr>`)
			for _, mt := range m.MeetingRows {
				row(b, mt.Title, mt.When, mt.Duration, mt.Location)
			}
			b.Raw(`</table>`)
		}
		b.Raw(`</section>`)
	})
}

// Missions renders the mission board with bid forms.
func Missions(m vm.MissionsViewModel) templ.Component {
	return templates.Component(func(b *builder) {
		switch m.Connect {
		case "done":
			b.Raw(`<div class="banner info">Payout details submitted. We will enable payouts once they are verified.</div>`)
		case "refresh":
			b.Raw(`<div class="banner warning">The payout setup link expired. Start again below.</div>`)
		}

		b.Raw(`<h1>Mission board</h1>`)
		if m.Configured {
			b.Raw(`<form method="post" action="/app/billing/connect">`)
			b.CSRF(m.CSRFToken)
			b.Raw(`<button class="secondary" type="submit">Set up payouts</button></form>`)
		}

		b.Raw(`<h2>Open projects</h2>`)
		if len(m.Open) == 0 {
			b.Raw(`<p class="muted">No open projects right now.</p>`)
		}
		for _, p := range m.Open {
			projectCard(b, p, m.CSRFToken)
		}

		if len(m.Mine) > 0 {
			b.Raw(`<h2>Your projects</h2>`)
			for _, p := range m.Mine {
				projectCard(b, p, m.CSRFToken)
			}
		}
	})
}

func projectCard(b *builder, p vm.ProjectCardViewModel, csrf string) {
	b.Raw(`<article class="card"><h3>`)
	b.Text(p.Title)
	b.Raw(`</h3><p><strong>`)
	b.Text(p.Budget)
	b.Raw(`</strong> <span class="badge">`)
	b.Text(p.Status)
	b.Raw(`</span> <span class="muted">posted `)
	b.Text(p.Posted)
	b.Raw(`</span></p>`)
	if len(p.Skills) > 0 {
		b.Raw(`<p class="muted">`)
		b.Text(strings.Join(p.Skills, ", "))
		b.Raw(`</p>`)
	}
	b.Raw(`<div class="prose">`)
	b.Raw(string(p.Description))
	b.Raw(`</div>`)

	if p.Own {
		b.Raw(`<p class="muted">`)
		b.Int(p.BidCount)
		b.Raw(` bids</p>`)
	}
	if p.CanBid {
		b.Raw(`<form method="post" action="`)
		b.Href(p.BidPath)
		b.Raw(`">`)
		b.CSRF(csrf)
		b.Raw(`<label>Your price (USD) <input name="amount" inputmode="decimal" required></label>`)
		b.Raw(`<label>Message <textarea name="message" rows="3" maxlength="4000"></textarea></label>`)
		b.Raw(`<button type="submit">Place bid</button></form>`)
	}
	b.Raw(`</article>`)
}

func stat(b *builder, label string, n int) {
	b.Raw(`<div class="card"><p class="muted">`)
	b.Text(label)
	b.Raw(`</p><p class="stat">`)
	b.Int(n)
	b.Raw(`</p></div>`)
}

func row(b *builder, cells ...string) {
	b.Raw(`<tr>`)
	for _, c := range cells {
		b.Raw(`<td>`)
		b.Text(c)
		b.Raw(`</td>`)
	}
	b.Raw(`</tr>`)
}
