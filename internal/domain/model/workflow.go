package model

import "time"

// Workflow is a downloadable automation template in the marketplace.
// FileName is relative to the configured workflows directory.
type Workflow struct {
	ID           string
	Slug         string
	Title        string
	Description  string // Markdown.
	Category     string
	RequiredTier Tier
	FileName     string
	SourceSHA    string // Blob SHA of the catalog source file; empty for manual entries.
	NodeCount    int
	Downloads    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WorkflowFilter narrows a marketplace listing. Zero values match everything.
type WorkflowFilter struct {
	Category string
	MaxTier  Tier // Only workflows accessible at this tier.
}

// CatalogEntry is a workflow file discovered in the catalog source.
type CatalogEntry struct {
	Path string
	Name string
	SHA  string
	Size int
}
