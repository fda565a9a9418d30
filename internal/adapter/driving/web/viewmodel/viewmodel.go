// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

import "html/template"

// Nav describes the signed-in state shown in the page header.
type Nav struct {
	SignedIn bool
	Email    string
	Tier     string
	Active   string // Section key of the current page.
}

// Flash is a one-line banner at the top of the page.
type Flash struct {
	Kind    string // "info", "warning" or "error".
	Message string
}

// PlanViewModel is one column of the pricing table.
type PlanViewModel struct {
	Tier        string
	Name        string
	Price       string
	Features    []string
	Current     bool
	Highlighted bool // The plan an upgrade prompt points at.
	Purchasable bool
}

// PricingViewModel holds the pricing page.
type PricingViewModel struct {
	Plans      []PlanViewModel
	Upgrade    string // Tier the caller was redirected to buy, if any.
	CSRFToken  string
	Configured bool
	SignedIn   bool
	// Subscribed callers change plans through the billing portal.
	Subscribed bool
}

// WorkflowCardViewModel is a marketplace listing entry.
type WorkflowCardViewModel struct {
	Slug         string
	Title        string
	Category     string
	RequiredTier string
	NodeCount    int
	Downloads    int
	DetailPath   string
	DownloadPath string
	Locked       bool
}

// WorkflowDetailViewModel is the workflow page with rendered description.
type WorkflowDetailViewModel struct {
	WorkflowCardViewModel
	DescriptionHTML template.HTML
}

// WorkflowListViewModel is the marketplace page.
type WorkflowListViewModel struct {
	Workflows  []WorkflowCardViewModel
	Categories []string
	Category   string
}

// BlogPostViewModel is a blog entry; BodyHTML is empty on the index.
type BlogPostViewModel struct {
	Slug        string
	Title       string
	Path        string
	PublishedAt string
	Excerpt     string
	BodyHTML    template.HTML
}

// DashboardViewModel is the signed-in landing page.
type DashboardViewModel struct {
	Tier               string
	SubscriptionStatus string
	RenewsOn           string
	CancelAtPeriodEnd  bool
	CheckoutResult     string
	CSRFToken          string
}

// ClientRowViewModel is an agency client row with its active phase.
type ClientRowViewModel struct {
	Name    string
	Company string
	Email   string
	Status  string
}

// TaskRowViewModel is an agency task row.
type TaskRowViewModel struct {
	Title    string
	Status   string
	Priority int
	Due      string
	Overdue  bool
}

// MeetingRowViewModel is an upcoming meeting row.
type MeetingRowViewModel struct {
	Title    string
	When     string
	Duration string
	Location string
}

// AgencyViewModel is the agency dashboard.
type AgencyViewModel struct {
	Clients          int
	OpenTasks        int
	UpcomingMeetings int
	Contacts         int
	Warnings         []string
	ClientRows       []ClientRowViewModel
	TaskRows         []TaskRowViewModel
	MeetingRows      []MeetingRowViewModel
}

// ProjectCardViewModel is a mission-board project with its bid form state.
type ProjectCardViewModel struct {
	ID          string
	Title       string
	Budget      string
	Skills      []string
	Status      string
	Posted      string
	Own         bool
	CanBid      bool
	BidPath     string
	BidCount    int
	Description template.HTML
}

// MissionsViewModel is the mission board page.
type MissionsViewModel struct {
	Open       []ProjectCardViewModel
	Mine       []ProjectCardViewModel
	CSRFToken  string
	Connect    string // Result of payout onboarding, if returning from it.
	Configured bool
}

// LoginViewModel is the sign-in page.
type LoginViewModel struct {
	Providers []LoginProviderViewModel
	Error     string
	Enabled   bool
}

// LoginProviderViewModel is one sign-in button.
type LoginProviderViewModel struct {
	Name string
	URL  string
}
