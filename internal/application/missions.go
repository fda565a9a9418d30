package application

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

const maxProjectSkills = 10

// ProjectInput holds the fields for a new mission-board project.
type ProjectInput struct {
	Title       string
	Description string
	BudgetCents int64
	Skills      []string
}

// BidInput holds the fields for a new bid.
type BidInput struct {
	AmountCents int64
	Message     string
}

// MissionService runs the freelance mission board: owners post projects,
// freelancers bid, owners accept one bid.
type MissionService struct {
	projectStore driven.ProjectStore
	bidStore     driven.BidStore
	now          func() time.Time
}

// NewMissionService creates a MissionService.
func NewMissionService(projects driven.ProjectStore, bids driven.BidStore) *MissionService {
	return &MissionService{
		projectStore: projects,
		bidStore:     bids,
		now:          time.Now,
	}
}

// PostProject publishes an open project owned by ownerID.
func (s *MissionService) PostProject(ctx context.Context, ownerID string, in ProjectInput) (model.Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Project{}, invalid("project title is required")
	}
	if in.BudgetCents <= 0 {
		return model.Project{}, invalid("budget must be positive")
	}

	skills := normalizeSkills(in.Skills)
	if len(skills) > maxProjectSkills {
		return model.Project{}, invalid("at most %d skills", maxProjectSkills)
	}

	now := s.now().UTC()
	project := model.Project{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		BudgetCents: in.BudgetCents,
		Skills:      skills,
		Status:      model.ProjectOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projectStore.Create(ctx, project); err != nil {
		return model.Project{}, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// ListOpen returns projects accepting bids, newest first.
func (s *MissionService) ListOpen(ctx context.Context) ([]model.Project, error) {
	projects, err := s.projectStore.ListByStatus(ctx, model.ProjectOpen)
	if err != nil {
		return nil, fmt.Errorf("list open projects: %w", err)
	}
	return projects, nil
}

// ListMine returns the caller's own projects.
func (s *MissionService) ListMine(ctx context.Context, ownerID string) ([]model.Project, error) {
	projects, err := s.projectStore.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects for %s: %w", ownerID, err)
	}
	return projects, nil
}

// GetProject returns a project by id.
func (s *MissionService) GetProject(ctx context.Context, projectID string) (model.Project, error) {
	project, err := s.projectStore.Get(ctx, projectID)
	if err != nil {
		return model.Project{}, fmt.Errorf("get project %s: %w", projectID, err)
	}
	return project, nil
}

// PlaceBid records a freelancer's bid on an open project. Owners cannot bid
// on their own projects and a freelancer bids at most once per project.
func (s *MissionService) PlaceBid(ctx context.Context, freelancerID, projectID string, in BidInput) (model.Bid, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return model.Bid{}, err
	}
	if project.Status != model.ProjectOpen {
		return model.Bid{}, ErrProjectClosed
	}
	if project.OwnerID == freelancerID {
		return model.Bid{}, fmt.Errorf("bid on own project: %w", ErrForbidden)
	}
	if in.AmountCents <= 0 {
		return model.Bid{}, invalid("bid amount must be positive")
	}

	bid := model.Bid{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		FreelancerID: freelancerID,
		AmountCents:  in.AmountCents,
		Message:      strings.TrimSpace(in.Message),
		Status:       model.BidPending,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.bidStore.Create(ctx, bid); err != nil {
		return model.Bid{}, fmt.Errorf("create bid: %w", err)
	}
	return bid, nil
}

// ListBids returns the bids on a project visible to the caller: all of them
// for the owner, only the caller's own otherwise.
func (s *MissionService) ListBids(ctx context.Context, callerID, projectID string) ([]model.Bid, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	bids, err := s.bidStore.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list bids %s: %w", projectID, err)
	}
	if project.OwnerID == callerID {
		return bids, nil
	}
	return slices.DeleteFunc(bids, func(b model.Bid) bool {
		return b.FreelancerID != callerID
	}), nil
}

// AcceptBid assigns the project to the bid's freelancer and rejects the
// other bids. Only the project owner may accept.
func (s *MissionService) AcceptBid(ctx context.Context, ownerID, projectID, bidID string) error {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project.OwnerID != ownerID {
		return fmt.Errorf("accept bid on %s: %w", projectID, ErrForbidden)
	}
	if project.Status != model.ProjectOpen {
		return ErrProjectClosed
	}

	bid, err := s.bidStore.Get(ctx, bidID)
	if err != nil {
		return fmt.Errorf("get bid %s: %w", bidID, err)
	}
	if bid.ProjectID != projectID {
		return fmt.Errorf("bid %s on project %s: %w", bidID, projectID, driven.ErrNotFound)
	}
	if bid.Status != model.BidPending {
		return invalid("bid is %s", bid.Status)
	}

	if err := s.bidStore.Accept(ctx, projectID, bidID); err != nil {
		return fmt.Errorf("accept bid %s: %w", bidID, err)
	}
	return nil
}

func normalizeSkills(in []string) []string {
	var out []string
	for _, skill := range in {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill != "" && !slices.Contains(out, skill) {
			out = append(out, skill)
		}
	}
	return out
}
