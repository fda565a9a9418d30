package driven

import (
	"context"
	"time"

	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// ClientStore defines the driven port for agency client persistence.
// Creating a client also creates its default timeline phases.
type ClientStore interface {
	Create(ctx context.Context, client model.Client) error
	Get(ctx context.Context, ownerID, clientID string) (model.Client, error)
	List(ctx context.Context, ownerID string) ([]model.Client, error)
	Count(ctx context.Context, ownerID string) (int, error)
	Timeline(ctx context.Context, clientID string) ([]model.TimelinePhase, error)
}

// TaskStore defines the driven port for agency task persistence.
type TaskStore interface {
	Create(ctx context.Context, task model.Task) error
	// List returns the owner's tasks; an empty status matches all.
	List(ctx context.Context, ownerID string, status model.TaskStatus) ([]model.Task, error)
	UpdateStatus(ctx context.Context, ownerID, taskID string, status model.TaskStatus) error
	CountOpen(ctx context.Context, ownerID string) (int, error)
}

// MeetingStore defines the driven port for meeting persistence.
type MeetingStore interface {
	Create(ctx context.Context, meeting model.Meeting) error
	ListUpcoming(ctx context.Context, ownerID string, from time.Time) ([]model.Meeting, error)
	CountUpcoming(ctx context.Context, ownerID string, from time.Time) (int, error)
}

// ContactStore defines the driven port for audience contacts.
// Add returns ErrAlreadyExists when the owner already has the email.
type ContactStore interface {
	Add(ctx context.Context, contact model.Contact) error
	// List returns the owner's contacts; an empty segment matches all.
	List(ctx context.Context, ownerID, segment string) ([]model.Contact, error)
	Count(ctx context.Context, ownerID string) (int, error)
}
