package model

import "time"

// ProjectStatus represents the lifecycle of a mission-board project.
type ProjectStatus string

const (
	ProjectOpen      ProjectStatus = "open"
	ProjectAssigned  ProjectStatus = "assigned"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// Project is a mission posted on the freelance board.
type Project struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	BudgetCents int64
	Skills      []string
	Status      ProjectStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BidStatus represents the state of a freelancer's bid.
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

// Bid is a freelancer's offer on a project.
type Bid struct {
	ID           string
	ProjectID    string
	FreelancerID string
	AmountCents  int64
	Message      string
	Status       BidStatus
	CreatedAt    time.Time
}
