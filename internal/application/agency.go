package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

const (
	defaultMeetingMinutes = 30
	defaultContactSegment = "general"
)

// ClientInput holds the fields for a new agency client.
type ClientInput struct {
	Name    string
	Company string
	Email   string
}

// TaskInput holds the fields for a new agency task.
type TaskInput struct {
	ClientID string
	Title    string
	Priority int
	DueAt    time.Time
}

// MeetingInput holds the fields for a new meeting.
type MeetingInput struct {
	ClientID        string
	Title           string
	StartsAt        time.Time
	DurationMinutes int
	Location        string
}

// ContactInput holds the fields for a new audience contact.
type ContactInput struct {
	Email   string
	Name    string
	Segment string
}

// AgencyService manages the agency workspace of a paid-plan user:
// clients with their timelines, tasks, meetings and audience contacts.
// Every operation is scoped to ownerID.
type AgencyService struct {
	clientStore  driven.ClientStore
	taskStore    driven.TaskStore
	meetingStore driven.MeetingStore
	contactStore driven.ContactStore
	now          func() time.Time
}

// NewAgencyService creates an AgencyService.
func NewAgencyService(clients driven.ClientStore, tasks driven.TaskStore, meetings driven.MeetingStore, contacts driven.ContactStore) *AgencyService {
	return &AgencyService{
		clientStore:  clients,
		taskStore:    tasks,
		meetingStore: meetings,
		contactStore: contacts,
		now:          time.Now,
	}
}

// CreateClient adds a client. The store creates its default timeline.
func (s *AgencyService) CreateClient(ctx context.Context, ownerID string, in ClientInput) (model.Client, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Client{}, invalid("client name is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return model.Client{}, invalid("client email is not valid")
		}
	}

	client := model.Client{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		Company:   strings.TrimSpace(in.Company),
		Email:     email,
		Status:    "active",
		CreatedAt: s.now().UTC(),
	}
	if err := s.clientStore.Create(ctx, client); err != nil {
		return model.Client{}, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// ListClients returns the owner's clients.
func (s *AgencyService) ListClients(ctx context.Context, ownerID string) ([]model.Client, error) {
	clients, err := s.clientStore.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// ClientTimeline returns the engagement phases of one of the owner's clients.
func (s *AgencyService) ClientTimeline(ctx context.Context, ownerID, clientID string) ([]model.TimelinePhase, error) {
	if _, err := s.clientStore.Get(ctx, ownerID, clientID); err != nil {
		return nil, fmt.Errorf("get client %s: %w", clientID, err)
	}
	phases, err := s.clientStore.Timeline(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load timeline %s: %w", clientID, err)
	}
	return phases, nil
}

// CreateTask adds a task, optionally attached to one of the owner's clients.
func (s *AgencyService) CreateTask(ctx context.Context, ownerID string, in TaskInput) (model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Task{}, invalid("task title is required")
	}
	if in.Priority < 0 || in.Priority > 3 {
		return model.Task{}, invalid("priority must be between 0 and 3")
	}
	if in.ClientID != "" {
		if _, err := s.clientStore.Get(ctx, ownerID, in.ClientID); err != nil {
			return model.Task{}, fmt.Errorf("get client %s: %w", in.ClientID, err)
		}
	}

	now := s.now().UTC()
	task := model.Task{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		ClientID:  in.ClientID,
		Title:     title,
		Status:    model.TaskTodo,
		Priority:  in.Priority,
		DueAt:     in.DueAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.taskStore.Create(ctx, task); err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// ListTasks returns the owner's tasks; an empty status lists all.
func (s *AgencyService) ListTasks(ctx context.Context, ownerID string, status model.TaskStatus) ([]model.Task, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("unknown task status %q", status)
	}
	tasks, err := s.taskStore.List(ctx, ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskStatus moves one of the owner's tasks to status.
func (s *AgencyService) UpdateTaskStatus(ctx context.Context, ownerID, taskID string, status model.TaskStatus) error {
	if !status.Valid() {
		return invalid("unknown task status %q", status)
	}
	if err := s.taskStore.UpdateStatus(ctx, ownerID, taskID, status); err != nil {
		return fmt.Errorf("update task %s: %w", taskID, err)
	}
	return nil
}

// ScheduleMeeting books a meeting with one of the owner's clients.
func (s *AgencyService) ScheduleMeeting(ctx context.Context, ownerID string, in MeetingInput) (model.Meeting, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Meeting{}, invalid("meeting title is required")
	}
	if in.StartsAt.IsZero() {
		return model.Meeting{}, invalid("meeting start is required")
	}
	duration := in.DurationMinutes
	if duration == 0 {
		duration = defaultMeetingMinutes
	}
	if duration < 0 || duration > 24*60 {
		return model.Meeting{}, invalid("meeting duration is out of range")
	}
	if in.ClientID != "" {
		if _, err := s.clientStore.Get(ctx, ownerID, in.ClientID); err != nil {
			return model.Meeting{}, fmt.Errorf("get client %s: %w", in.ClientID, err)
		}
	}

	meeting := model.Meeting{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		ClientID:        in.ClientID,
		Title:           title,
		StartsAt:        in.StartsAt.UTC(),
		DurationMinutes: duration,
		Location:        strings.TrimSpace(in.Location),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.meetingStore.Create(ctx, meeting); err != nil {
		return model.Meeting{}, fmt.Errorf("create meeting: %w", err)
	}
	return meeting, nil
}

// UpcomingMeetings returns meetings starting from now, soonest first.
func (s *AgencyService) UpcomingMeetings(ctx context.Context, ownerID string) ([]model.Meeting, error) {
	meetings, err := s.meetingStore.ListUpcoming(ctx, ownerID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return meetings, nil
}

// AddContact adds an audience contact. A duplicate email for the owner
// returns driven.ErrAlreadyExists.
func (s *AgencyService) AddContact(ctx context.Context, ownerID string, in ContactInput) (model.Contact, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return model.Contact{}, invalid("contact email is not valid")
	}
	segment := strings.ToLower(strings.TrimSpace(in.Segment))
	if segment == "" {
		segment = defaultContactSegment
	}

	contact := model.Contact{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Email:     email,
		Name:      strings.TrimSpace(in.Name),
		Segment:   segment,
		CreatedAt: s.now().UTC(),
	}
	if err := s.contactStore.Add(ctx, contact); err != nil {
		if errors.Is(err, driven.ErrAlreadyExists) {
			return model.Contact{}, fmt.Errorf("contact %s: %w", email, err)
		}
		return model.Contact{}, fmt.Errorf("add contact: %w", err)
	}
	return contact, nil
}

// ListContacts returns the owner's contacts; an empty segment lists all.
func (s *AgencyService) ListContacts(ctx context.Context, ownerID, segment string) ([]model.Contact, error) {
	contacts, err := s.contactStore.List(ctx, ownerID, strings.ToLower(strings.TrimSpace(segment)))
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// Overview loads the dashboard counters concurrently. A counter that fails
// is reported as zero with a warning instead of failing the whole overview.
func (s *AgencyService) Overview(ctx context.Context, ownerID string) model.AgencyOverview {
	var (
		overview model.AgencyOverview
		mu       sync.Mutex
		g        errgroup.Group
	)
	now := s.now().UTC()

	count := func(label string, dst *int, fn func() (int, error)) {
		g.Go(func() error {
			n, err := fn()
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("agency counter failed", "owner", ownerID, "counter", label, "error", err)
				overview.Warnings = append(overview.Warnings, label+" are temporarily unavailable")
				return nil
			}
			*dst = n
			return nil
		})
	}

	count("clients", &overview.Clients, func() (int, error) {
		return s.clientStore.Count(ctx, ownerID)
	})
	count("tasks", &overview.OpenTasks, func() (int, error) {
		return s.taskStore.CountOpen(ctx, ownerID)
	})
	count("meetings", &overview.UpcomingMeetings, func() (int, error) {
		return s.meetingStore.CountUpcoming(ctx, ownerID, now)
	})
	count("contacts", &overview.Contacts, func() (int, error) {
		return s.contactStore.Count(ctx, ownerID)
	})

	_ = g.Wait()
	slices.Sort(overview.Warnings)
	return overview
}
