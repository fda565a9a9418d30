package driven

import (
	"context"

	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// WorkflowStore defines the driven port for marketplace workflow persistence.
type WorkflowStore interface {
	// Upsert inserts or updates a workflow keyed by slug and returns the stored row.
	Upsert(ctx context.Context, wf model.Workflow) (model.Workflow, error)
	GetBySlug(ctx context.Context, slug string) (model.Workflow, error)
	List(ctx context.Context, filter model.WorkflowFilter) ([]model.Workflow, error)
	// ListSourceSHAs maps slug to catalog SHA for workflows imported from the catalog.
	ListSourceSHAs(ctx context.Context) (map[string]string, error)
	IncrementDownloads(ctx context.Context, id string) error
}
