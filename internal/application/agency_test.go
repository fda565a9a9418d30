package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

type mockClientStore struct {
	clients  []model.Client
	countErr error
}

func (m *mockClientStore) Create(_ context.Context, c model.Client) error {
	m.clients = append(m.clients, c)
	return nil
}

func (m *mockClientStore) Get(_ context.Context, ownerID, clientID string) (model.Client, error) {
	for _, c := range m.clients {
		if c.ID == clientID && c.OwnerID == ownerID {
			return c, nil
		}
	}
	return model.Client{}, driven.ErrNotFound
}

func (m *mockClientStore) List(_ context.Context, ownerID string) ([]model.Client, error) {
	var out []model.Client
	for _, c := range m.clients {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockClientStore) Count(ctx context.Context, ownerID string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	list, _ := m.List(ctx, ownerID)
	return len(list), nil
}

func (m *mockClientStore) Timeline(_ context.Context, clientID string) ([]model.TimelinePhase, error) {
	return []model.TimelinePhase{{ID: 1, ClientID: clientID, Name: "Discovery", Position: 1, Status: "pending"}}, nil
}

type mockTaskStore struct {
	tasks    []model.Task
	countErr error
}

func (m *mockTaskStore) Create(_ context.Context, t model.Task) error {
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *mockTaskStore) List(_ context.Context, ownerID string, status model.TaskStatus) ([]model.Task, error) {
	var out []model.Task
	for _, t := range m.tasks {
		if t.OwnerID == ownerID && (status == "" || t.Status == status) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTaskStore) UpdateStatus(_ context.Context, ownerID, taskID string, status model.TaskStatus) error {
	for i, t := range m.tasks {
		if t.ID == taskID && t.OwnerID == ownerID {
			m.tasks[i].Status = status
			return nil
		}
	}
	return driven.ErrNotFound
}

func (m *mockTaskStore) CountOpen(_ context.Context, ownerID string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	n := 0
	for _, t := range m.tasks {
		if t.OwnerID == ownerID && t.Status != model.TaskDone {
			n++
		}
	}
	return n, nil
}

type mockMeetingStore struct {
	meetings []model.Meeting
}

func (m *mockMeetingStore) Create(_ context.Context, mt model.Meeting) error {
	m.meetings = append(m.meetings, mt)
	return nil
}

func (m *mockMeetingStore) ListUpcoming(_ context.Context, ownerID string, from time.Time) ([]model.Meeting, error) {
	var out []model.Meeting
	for _, mt := range m.meetings {
		if mt.OwnerID == ownerID && !mt.StartsAt.Before(from) {
			out = append(out, mt)
		}
	}
	return out, nil
}

func (m *mockMeetingStore) CountUpcoming(ctx context.Context, ownerID string, from time.Time) (int, error) {
	list, _ := m.ListUpcoming(ctx, ownerID, from)
	return len(list), nil
}

type mockContactStore struct {
	contacts []model.Contact
}

func (m *mockContactStore) Add(_ context.Context, c model.Contact) error {
	for _, existing := range m.contacts {
		if existing.OwnerID == c.OwnerID && existing.Email == c.Email {
			return driven.ErrAlreadyExists
		}
	}
	m.contacts = append(m.contacts, c)
	return nil
}

func (m *mockContactStore) List(_ context.Context, ownerID, segment string) ([]model.Contact, error) {
	var out []model.Contact
	for _, c := range m.contacts {
		if c.OwnerID == ownerID && (segment == "" || c.Segment == segment) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockContactStore) Count(_ context.Context, ownerID string) (int, error) {
	list, _ := m.List(context.Background(), ownerID, "")
	return len(list), nil
}

type agencyFixture struct {
	svc      *application.AgencyService
	clients  *mockClientStore
	tasks    *mockTaskStore
	meetings *mockMeetingStore
	contacts *mockContactStore
}

func newAgencyFixture() *agencyFixture {
	f := &agencyFixture{
		clients:  &mockClientStore{},
		tasks:    &mockTaskStore{},
		meetings: &mockMeetingStore{},
		contacts: &mockContactStore{},
	}
	f.svc = application.NewAgencyService(f.clients, f.tasks, f.meetings, f.contacts)
	return f
}

func TestAgencyClients(t *testing.T) {
	f := newAgencyFixture()
	ctx := context.Background()

	c, err := f.svc.CreateClient(ctx, "owner", application.ClientInput{Name: " Acme ", Email: "Ops@Acme.test"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "ops@acme.test", c.Email)

	_, err = f.svc.CreateClient(ctx, "owner", application.ClientInput{Name: ""})
	require.ErrorIs(t, err, application.ErrInvalidInput)

	_, err = f.svc.CreateClient(ctx, "owner", application.ClientInput{Name: "X", Email: "not-an-email"})
	require.ErrorIs(t, err, application.ErrInvalidInput)

	phases, err := f.svc.ClientTimeline(ctx, "owner", c.ID)
	require.NoError(t, err)
	assert.Len(t, phases, 1)

	_, err = f.svc.ClientTimeline(ctx, "someone-else", c.ID)
	require.ErrorIs(t, err, driven.ErrNotFound)
}

func TestAgencyTasks(t *testing.T) {
	f := newAgencyFixture()
	ctx := context.Background()

	task, err := f.svc.CreateTask(ctx, "owner", application.TaskInput{Title: "Send proposal", Priority: 2})
	require.NoError(t, err)
	assert.Equal(t, model.TaskTodo, task.Status)

	_, err = f.svc.CreateTask(ctx, "owner", application.TaskInput{Title: "Orphan", ClientID: "missing"})
	require.ErrorIs(t, err, driven.ErrNotFound)

	_, err = f.svc.CreateTask(ctx, "owner", application.TaskInput{Title: "Bad", Priority: 9})
	require.ErrorIs(t, err, application.ErrInvalidInput)

	require.NoError(t, f.svc.UpdateTaskStatus(ctx, "owner", task.ID, model.TaskDone))
	require.ErrorIs(t, f.svc.UpdateTaskStatus(ctx, "owner", task.ID, "archived"), application.ErrInvalidInput)
	require.ErrorIs(t, f.svc.UpdateTaskStatus(ctx, "intruder", task.ID, model.TaskTodo), driven.ErrNotFound)

	done, err := f.svc.ListTasks(ctx, "owner", model.TaskDone)
	require.NoError(t, err)
	assert.Len(t, done, 1)

	_, err = f.svc.ListTasks(ctx, "owner", "bogus")
	require.ErrorIs(t, err, application.ErrInvalidInput)
}

func TestAgencyMeetings(t *testing.T) {
	f := newAgencyFixture()
	ctx := context.Background()

	m, err := f.svc.ScheduleMeeting(ctx, "owner", application.MeetingInput{
		Title:    "Kickoff",
		StartsAt: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 30, m.DurationMinutes)

	_, err = f.svc.ScheduleMeeting(ctx, "owner", application.MeetingInput{Title: "No start"})
	require.ErrorIs(t, err, application.ErrInvalidInput)

	upcoming, err := f.svc.UpcomingMeetings(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)
}

func TestAgencyContacts(t *testing.T) {
	f := newAgencyFixture()
	ctx := context.Background()

	c, err := f.svc.AddContact(ctx, "owner", application.ContactInput{Email: "Lead@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "general", c.Segment)

	_, err = f.svc.AddContact(ctx, "owner", application.ContactInput{Email: "lead@example.com", Segment: "vip"})
	require.ErrorIs(t, err, driven.ErrAlreadyExists)

	_, err = f.svc.AddContact(ctx, "other-owner", application.ContactInput{Email: "lead@example.com"})
	require.NoError(t, err)

	_, err = f.svc.AddContact(ctx, "owner", application.ContactInput{Email: "nope"})
	require.ErrorIs(t, err, application.ErrInvalidInput)

	list, err := f.svc.ListContacts(ctx, "owner", "GENERAL")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAgencyOverview(t *testing.T) {
	f := newAgencyFixture()
	ctx := context.Background()

	_, err := f.svc.CreateClient(ctx, "owner", application.ClientInput{Name: "Acme"})
	require.NoError(t, err)
	_, err = f.svc.CreateTask(ctx, "owner", application.TaskInput{Title: "One"})
	require.NoError(t, err)
	_, err = f.svc.AddContact(ctx, "owner", application.ContactInput{Email: "a@b.test"})
	require.NoError(t, err)

	got := f.svc.Overview(ctx, "owner")
	assert.Equal(t, model.AgencyOverview{Clients: 1, OpenTasks: 1, Contacts: 1}, got)
}

func TestAgencyOverview_PartialFailure(t *testing.T) {
	f := newAgencyFixture()
	f.clients.countErr = errors.New("connection reset")
	f.tasks.countErr = errors.New("timeout")
	_, err := f.svc.AddContact(context.Background(), "owner", application.ContactInput{Email: "a@b.test"})
	require.NoError(t, err)

	got := f.svc.Overview(context.Background(), "owner")
	assert.Equal(t, 0, got.Clients)
	assert.Equal(t, 0, got.OpenTasks)
	assert.Equal(t, 1, got.Contacts)
	assert.Equal(t, []string{
		"clients are temporarily unavailable",
		"tasks are temporarily unavailable",
	}, got.Warnings)
}
