package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

func seedProject(t *testing.T, db *DB) (*ProjectRepo, *BidRepo) {
	t.Helper()
	projects := NewProjectRepo(db)
	bids := NewBidRepo(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, projects.Create(ctx, model.Project{
		ID: "p1", OwnerID: "owner", Title: "Build CRM sync", BudgetCents: 100000,
		Skills: []string{"go", "sql"}, Status: model.ProjectOpen, CreatedAt: now, UpdatedAt: now,
	}))
	for _, b := range []model.Bid{
		{ID: "b1", ProjectID: "p1", FreelancerID: "dev1", AmountCents: 90000, Status: model.BidPending, CreatedAt: now},
		{ID: "b2", ProjectID: "p1", FreelancerID: "dev2", AmountCents: 80000, Status: model.BidPending, CreatedAt: now},
	} {
		require.NoError(t, bids.Create(ctx, b))
	}
	return projects, bids
}

func TestProjectRepo_SkillsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	projects, _ := seedProject(t, db)
	ctx := context.Background()

	p, err := projects.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "sql"}, p.Skills)

	open, err := projects.ListByStatus(ctx, model.ProjectOpen)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	mine, err := projects.ListByOwner(ctx, "someone")
	require.NoError(t, err)
	assert.Empty(t, mine)

	_, err = projects.Get(ctx, "missing")
	require.ErrorIs(t, err, driven.ErrNotFound)
}

func TestBidRepo_Create(t *testing.T) {
	db := setupTestDB(t)
	_, bids := seedProject(t, db)
	ctx := context.Background()

	err := bids.Create(ctx, model.Bid{ID: "b3", ProjectID: "p1", FreelancerID: "dev1", AmountCents: 1, Status: model.BidPending, CreatedAt: time.Now()})
	require.ErrorIs(t, err, driven.ErrAlreadyExists)

	err = bids.Create(ctx, model.Bid{ID: "b4", ProjectID: "ghost", FreelancerID: "dev1", AmountCents: 1, Status: model.BidPending, CreatedAt: time.Now()})
	require.ErrorIs(t, err, driven.ErrNotFound)

	list, err := bids.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b2", list[0].ID, "lowest amount first")
}

func TestBidRepo_Accept(t *testing.T) {
	db := setupTestDB(t)
	projects, bids := seedProject(t, db)
	ctx := context.Background()

	require.NoError(t, bids.Accept(ctx, "p1", "b1"))

	b1, err := bids.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, model.BidAccepted, b1.Status)

	b2, err := bids.Get(ctx, "b2")
	require.NoError(t, err)
	assert.Equal(t, model.BidRejected, b2.Status)

	p, err := projects.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, model.ProjectAssigned, p.Status)

	require.ErrorIs(t, bids.Accept(ctx, "p1", "b2"), driven.ErrConflict)
}

func TestBidRepo_AcceptRollsBack(t *testing.T) {
	db := setupTestDB(t)
	projects, bids := seedProject(t, db)
	ctx := context.Background()

	// Close the project behind the repo's back; the accept must not leave
	// half-applied bid updates.
	_, err := db.Writer.ExecContext(ctx, `UPDATE projects SET status = 'cancelled' WHERE id = 'p1'`)
	require.NoError(t, err)

	require.ErrorIs(t, bids.Accept(ctx, "p1", "b1"), driven.ErrConflict)

	for _, id := range []string{"b1", "b2"} {
		b, err := bids.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.BidPending, b.Status, id)
	}
	p, err := projects.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, model.ProjectCancelled, p.Status)
}
