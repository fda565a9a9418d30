package driven

import (
	"context"

	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// ProjectStore defines the driven port for mission-board projects.
type ProjectStore interface {
	Create(ctx context.Context, project model.Project) error
	Get(ctx context.Context, projectID string) (model.Project, error)
	ListByStatus(ctx context.Context, status model.ProjectStatus) ([]model.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Project, error)
}

// BidStore defines the driven port for bids.
// Create returns ErrAlreadyExists when the freelancer already bid on the project.
type BidStore interface {
	Create(ctx context.Context, bid model.Bid) error
	Get(ctx context.Context, bidID string) (model.Bid, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Bid, error)
	// Accept marks the bid accepted, rejects its sibling bids and assigns the
	// project, atomically. Returns ErrConflict if the bid or project changed
	// state first.
	Accept(ctx context.Context, projectID, bidID string) error
}
