package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

type mockProjectStore struct {
	projects map[string]model.Project
}

func (m *mockProjectStore) Create(_ context.Context, p model.Project) error {
	m.projects[p.ID] = p
	return nil
}

func (m *mockProjectStore) Get(_ context.Context, id string) (model.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return model.Project{}, driven.ErrNotFound
	}
	return p, nil
}

func (m *mockProjectStore) ListByStatus(_ context.Context, status model.ProjectStatus) ([]model.Project, error) {
	var out []model.Project
	for _, p := range m.projects {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProjectStore) ListByOwner(_ context.Context, ownerID string) ([]model.Project, error) {
	var out []model.Project
	for _, p := range m.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockBidStore struct {
	bids     []model.Bid
	projects *mockProjectStore
}

func (m *mockBidStore) Create(_ context.Context, b model.Bid) error {
	for _, existing := range m.bids {
		if existing.ProjectID == b.ProjectID && existing.FreelancerID == b.FreelancerID {
			return driven.ErrAlreadyExists
		}
	}
	m.bids = append(m.bids, b)
	return nil
}

func (m *mockBidStore) Get(_ context.Context, id string) (model.Bid, error) {
	for _, b := range m.bids {
		if b.ID == id {
			return b, nil
		}
	}
	return model.Bid{}, driven.ErrNotFound
}

func (m *mockBidStore) ListByProject(_ context.Context, projectID string) ([]model.Bid, error) {
	var out []model.Bid
	for _, b := range m.bids {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBidStore) Accept(_ context.Context, projectID, bidID string) error {
	for i, b := range m.bids {
		if b.ProjectID != projectID {
			continue
		}
		if b.ID == bidID {
			m.bids[i].Status = model.BidAccepted
		} else {
			m.bids[i].Status = model.BidRejected
		}
	}
	p := m.projects.projects[projectID]
	p.Status = model.ProjectAssigned
	m.projects.projects[projectID] = p
	return nil
}

func newMissionFixture() (*application.MissionService, *mockProjectStore, *mockBidStore) {
	projects := &mockProjectStore{projects: make(map[string]model.Project)}
	bids := &mockBidStore{projects: projects}
	return application.NewMissionService(projects, bids), projects, bids
}

func TestPostProject(t *testing.T) {
	svc, _, _ := newMissionFixture()
	ctx := context.Background()

	p, err := svc.PostProject(ctx, "owner", application.ProjectInput{
		Title:       "Build CRM sync",
		BudgetCents: 50000,
		Skills:      []string{"Go", " go ", "", "SQL"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectOpen, p.Status)
	assert.Equal(t, []string{"go", "sql"}, p.Skills)

	_, err = svc.PostProject(ctx, "owner", application.ProjectInput{Title: "Free work"})
	require.ErrorIs(t, err, application.ErrInvalidInput)

	open, err := svc.ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestPlaceBid(t *testing.T) {
	svc, _, _ := newMissionFixture()
	ctx := context.Background()

	p, err := svc.PostProject(ctx, "owner", application.ProjectInput{Title: "Job", BudgetCents: 1000})
	require.NoError(t, err)

	_, err = svc.PlaceBid(ctx, "owner", p.ID, application.BidInput{AmountCents: 900})
	require.ErrorIs(t, err, application.ErrForbidden)

	_, err = svc.PlaceBid(ctx, "dev1", p.ID, application.BidInput{AmountCents: 0})
	require.ErrorIs(t, err, application.ErrInvalidInput)

	bid, err := svc.PlaceBid(ctx, "dev1", p.ID, application.BidInput{AmountCents: 900, Message: "I can do it"})
	require.NoError(t, err)
	assert.Equal(t, model.BidPending, bid.Status)

	_, err = svc.PlaceBid(ctx, "dev1", p.ID, application.BidInput{AmountCents: 800})
	require.ErrorIs(t, err, driven.ErrAlreadyExists)

	_, err = svc.PlaceBid(ctx, "dev1", "missing", application.BidInput{AmountCents: 800})
	require.ErrorIs(t, err, driven.ErrNotFound)
}

func TestListBidsVisibility(t *testing.T) {
	svc, _, _ := newMissionFixture()
	ctx := context.Background()

	p, err := svc.PostProject(ctx, "owner", application.ProjectInput{Title: "Job", BudgetCents: 1000})
	require.NoError(t, err)
	_, err = svc.PlaceBid(ctx, "dev1", p.ID, application.BidInput{AmountCents: 900})
	require.NoError(t, err)
	_, err = svc.PlaceBid(ctx, "dev2", p.ID, application.BidInput{AmountCents: 950})
	require.NoError(t, err)

	all, err := svc.ListBids(ctx, "owner", p.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.ListBids(ctx, "dev2", p.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "dev2", own[0].FreelancerID)

	none, err := svc.ListBids(ctx, "stranger", p.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAcceptBid(t *testing.T) {
	svc, projects, bids := newMissionFixture()
	ctx := context.Background()

	p, err := svc.PostProject(ctx, "owner", application.ProjectInput{Title: "Job", BudgetCents: 1000})
	require.NoError(t, err)
	b1, err := svc.PlaceBid(ctx, "dev1", p.ID, application.BidInput{AmountCents: 900})
	require.NoError(t, err)
	_, err = svc.PlaceBid(ctx, "dev2", p.ID, application.BidInput{AmountCents: 950})
	require.NoError(t, err)

	require.ErrorIs(t, svc.AcceptBid(ctx, "dev1", p.ID, b1.ID), application.ErrForbidden)
	require.ErrorIs(t, svc.AcceptBid(ctx, "owner", p.ID, "missing"), driven.ErrNotFound)

	require.NoError(t, svc.AcceptBid(ctx, "owner", p.ID, b1.ID))
	assert.Equal(t, model.ProjectAssigned, projects.projects[p.ID].Status)
	assert.Equal(t, model.BidAccepted, bids.bids[0].Status)
	assert.Equal(t, model.BidRejected, bids.bids[1].Status)

	require.ErrorIs(t, svc.AcceptBid(ctx, "owner", p.ID, b1.ID), application.ErrProjectClosed)

	_, err = svc.PlaceBid(ctx, "dev3", p.ID, application.BidInput{AmountCents: 700})
	require.ErrorIs(t, err, application.ErrProjectClosed)
}
