// Package templates holds the page shell and the HTML builder shared by the
// page components.
package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	vm "github.com/automatrixhq/automatrix/internal/adapter/driving/web/viewmodel"
)

// Builder writes HTML fragments, remembering the first write error so
// components can emit markup without checking every call.
type Builder struct {
	ctx context.Context
	w   io.Writer
	err error
}

// NewBuilder returns a Builder writing to w.
func NewBuilder(ctx context.Context, w io.Writer) *Builder {
	return &Builder{ctx: ctx, w: w}
}

// Raw writes trusted markup.
func (b *Builder) Raw(s string) {
	if b.err == nil {
		_, b.err = io.WriteString(b.w, s)
	}
}

// Text writes s HTML-escaped.
func (b *Builder) Text(s string) {
	b.Raw(templ.EscapeString(s))
}

// Int writes n.
func (b *Builder) Int(n int) {
	b.Raw(strconv.Itoa(n))
}

// Href writes a sanitized, escaped URL for use inside an attribute.
func (b *Builder) Href(u string) {
	b.Raw(templ.EscapeString(string(templ.URL(u))))
}

// Component renders c in place.
func (b *Builder) Component(c templ.Component) {
	if b.err == nil && c != nil {
		b.err = c.Render(b.ctx, b.w)
	}
}

// CSRF writes the hidden form field carrying token.
func (b *Builder) CSRF(token string) {
	b.Raw(`<input type="hidden" name="csrf_token" value="`)
	b.Text(token)
	b.Raw(`">`)
}

// Err returns the first write error.
func (b *Builder) Err() error {
	return b.err
}

// Component adapts a builder function to templ.Component.
func Component(fn func(b *Builder)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		b := NewBuilder(ctx, w)
		fn(b)
		return b.Err()
	})
}

var navLinks = []struct {
	key, label, path string
	signedIn         bool
}{
	{"workflows", "Workflows", "/workflows", false},
	{"pricing", "Pricing", "/pricing", false},
	{"blog", "Blog", "/blog", false},
	{"dashboard", "Dashboard", "/app/dashboard", true},
	{"agency", "Agency", "/app/agency", true},
	{"missions", "Missions", "/app/missions", true},
}

// Layout wraps body in the full HTML document with the site header.
func Layout(title string, nav vm.Nav, flash *vm.Flash, body templ.Component) templ.Component {
	return Component(func(b *Builder) {
		b.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.Raw(`<title>`)
		b.Text(title)
		b.Raw(` · Automatrix</title><link rel="stylesheet" href="/static/app.css"></head><body>`)

		b.Raw(`<header class="site"><a href="/"><strong>Automatrix</strong></a><nav>`)
		for _, l := range navLinks {
			if l.signedIn && !nav.SignedIn {
				continue
			}
			b.Raw(`<a href="`)
			b.Href(l.path)
			b.Raw(`"`)
			if l.key == nav.Active {
				b.Raw(` class="active"`)
			}
			b.Raw(`>`)
			b.Text(l.label)
			b.Raw(`</a>`)
		}
		b.Raw(`</nav><div>`)
		if nav.SignedIn {
			b.Raw(`<span class="muted">`)
			b.Text(nav.Email)
			b.Raw(`</span> <span class="badge `)
			b.Text(nav.Tier)
			b.Raw(`">`)
			b.Text(nav.Tier)
			b.Raw(`</span> <form class="inline" method="post" action="/auth/signout"><button class="secondary" type="submit">Sign out</button></form>`)
		} else {
			b.Raw(`<a class="button" href="/login">Sign in</a>`)
		}
		b.Raw(`</div></header><main>`)

		if flash != nil && flash.Message != "" {
			b.Raw(`<div class="banner `)
			b.Text(flash.Kind)
			b.Raw(`" role="status">`)
			b.Text(flash.Message)
			b.Raw(`</div>`)
		}

		b.Component(body)
		b.Raw(`</main></body></html>`)
	})
}
