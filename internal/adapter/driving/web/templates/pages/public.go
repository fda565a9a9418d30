// Package pages contains the page body components.
package pages

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/automatrixhq/automatrix/internal/adapter/driving/web/templates"
	vm "github.com/automatrixhq/automatrix/internal/adapter/driving/web/viewmodel"
)

type builder = templates.Builder

// Home is the public landing page.
func Home(signedIn bool) templ.Component {
	return templates.Component(func(b *builder) {
		b.Raw(`<section class="card"><h1>Automation that runs your agency</h1>`)
		b.Raw(`<p class="muted">Ready-made workflow templates, an onboarding assistant, an agency workspace and a mission board for freelancers.</p>`)
		if signedIn {
			b.Raw(`<a class="button" href="/app/dashboard">Open dashboard</a>`)
		} else {
			b.Raw(`<a class="button" href="/login">Get started free</a> <a href="/pricing">See plans</a>`)
		}
		b.Raw(`</section>`)
	})
}

// Login lists the sign-in providers.
func Login(m vm.LoginViewModel) templ.Component {
	return templates.Component(func(b *builder) {
		b.Raw(`<section class="card"><h1>Sign in</h1>`)
		if m.Error != "" {
			b.Raw(`<div class="banner error">`)
			b.Text(m.Error)
			b.Raw(`</div>`)
		}
		if !m.Enabled {
			b.Raw(`<p class="muted">Sign-in is temporarily unavailable.</p></section>`)
			return
		}
		for _, p := range m.Providers {
			b.Raw(`<p><a class="button" href="`)
			b.Href(p.URL)
			b.Raw(`">Continue with `)
			b.Text(p.Name)
			b.Raw(`</a></p>`)
		}
		b.Raw(`</section>`)
	})
}

// Pricing renders the plan table with checkout buttons.
func Pricing(m vm.PricingViewModel) templ.Component {
	return templates.Component(func(b *builder) {
		b.Raw(`<h1>Plans</h1>`)
		if m.Upgrade != "" {
			b.Raw(`<div class="banner warning">That page needs the `)
			b.Text(m.Upgrade)
			b.Raw(` plan or higher.</div>`)
		}
		if !m.Configured {
			b.Raw(`<div class="banner info">Online checkout is temporarily unavailable.</div>`)
		}
		b.Raw(`<div class="grid">`)
		for _, p := range m.Plans {
			b.Raw(`<div class="card`)
			if p.Highlighted {
				b.Raw(` highlight`)
			}
			b.Raw(`"><h3>`)
			b.Text(p.Name)
			b.Raw(`</h3><p class="stat">`)
			b.Text(p.Price)
			b.Raw(`</p><ul>`)
			for _, f := range p.Features {
				b.Raw(`<li>`)
				b.Text(f)
				b.Raw(`</li>`)
			}
			b.Raw(`</ul>`)
			switch {
			case !m.SignedIn:
				if p.Purchasable {
					b.Raw(`<a class="button" href="/login?next=%2Fpricing">Sign in to subscribe</a>`)
				}
			case p.Current:
				b.Raw(`<span class="badge">Current plan</span>`)
			case p.Purchasable && m.Subscribed:
				b.Raw(`<form method="post" action="/app/billing/portal">`)
				b.CSRF(m.CSRFToken)
				b.Raw(`<button type="submit">Switch to `)
				b.Text(p.Name)
				b.Raw(`</button></form>`)
			case p.Purchasable:
				b.Raw(`<form method="post" action="/app/billing/checkout">`)
				b.CSRF(m.CSRFToken)
				b.Raw(`<input type="hidden" name="tier" value="`)
				b.Text(p.Tier)
				b.Raw(`"><button type="submit">Choose `)
				b.Text(p.Name)
				b.Raw(`</button></form>`)
			}
			b.Raw(`</div>`)
		}
		b.Raw(`</div>`)
	})
}

// Workflows renders the marketplace listing.
func Workflows(m vm.WorkflowListViewModel) templ.Component {
	return templates.Component(func(b *builder) {
		b.Raw(`<h1>Workflow templates</h1><p>`)
		b.Raw(`<a href="/workflows">All</a>`)
		for _, c := range m.Categories {
			b.Raw(` · <a href="`)
			b.Href("/workflows?category=" + c)
			b.Raw(`">`)
			if c == m.Category {
				b.Raw(`<strong>`)
				b.Text(c)
				b.Raw(`</strong>`)
			} else {
				b.Text(c)
			}
			b.Raw(`</a>`)
		}
		b.Raw(`</p>`)
		if len(m.Workflows) == 0 {
			b.Raw(`<p class="muted">No workflows yet.</p>`)
			return
		}
		b.Raw(`<div class="grid">`)
		for _, wf := range m.Workflows {
			workflowCard(b, wf)
		}
		b.Raw(`</div>`)
	})
}

func workflowCard(b *builder, wf vm.WorkflowCardViewModel) {
	b.Raw(`<div class="card"><h3><a href="`)
	b.Href(wf.DetailPath)
	b.Raw(`">`)
	b.Text(wf.Title)
	b.Raw(`</a></h3><p><span class="badge `)
	b.Text(wf.RequiredTier)
	b.Raw(`">`)
	b.Text(wf.RequiredTier)
	b.Raw(`</span> <span class="muted">`)
	b.Text(wf.Category)
	b.Raw(` · `)
	b.Int(wf.NodeCount)
	b.Raw(` nodes · `)
	b.Int(wf.Downloads)
	b.Raw(` downloads</span></p>`)
	if wf.Locked {
		b.Raw(`<a href="`)
		b.Href("/pricing?upgrade=" + wf.RequiredTier)
		b.Raw(`">Upgrade to download</a>`)
	} else {
		b.Raw(`<a class="button" href="`)
		b.Href(wf.DownloadPath)
		b.Raw(`">Download</a>`)
	}
	b.Raw(`</div>`)
}

// Workflow renders a single template with its description.
func Workflow(m vm.WorkflowDetailViewModel) templ.Component {
	return templates.Component(func(b *builder) {
		workflowCard(b, m.WorkflowCardViewModel)
		b.Raw(`<article class="card prose">`)
		b.Raw(string(m.DescriptionHTML))
		b.Raw(`</article>`)
	})
}

// BlogIndex lists published posts.
func BlogIndex(posts []vm.BlogPostViewModel) templ.Component {
	return templates.Component(func(b *builder) {
		b.Raw(`<h1>Blog</h1>`)
		if len(posts) == 0 {
			b.Raw(`<p class="muted">Nothing published yet.</p>`)
			return
		}
		for _, p := range posts {
			b.Raw(`<article class="card"><h2><a href="`)
			b.Href(p.Path)
			b.Raw(`">`)
			b.Text(p.Title)
			b.Raw(`</a></h2><p class="muted">`)
			b.Text(p.PublishedAt)
			b.Raw(`</p><p>`)
			b.Text(p.Excerpt)
			b.Raw(`</p></article>`)
		}
	})
}

// BlogPost renders one post.
func BlogPost(p vm.BlogPostViewModel) templ.Component {
	return templates.Component(func(b *builder) {
		b.Raw(`<article class="card prose"><h1>`)
		b.Text(p.Title)
		b.Raw(`</h1><p class="muted">`)
		b.Text(p.PublishedAt)
		b.Raw(`</p>`)
		b.Raw(string(p.BodyHTML))
		b.Raw(`</article>`)
	})
}

// Error renders a status page.
func Error(status int, message string) templ.Component {
	return templates.Component(func(b *builder) {
		b.Raw(`<section class="card"><h1>`)
		b.Raw(strconv.Itoa(status))
		b.Raw(`</h1><p>`)
		b.Text(message)
		b.Raw(`</p><a href="/">Back home</a></section>`)
	})
}
