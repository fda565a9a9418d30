package model

import "time"

// Client is an agency customer account.
type Client struct {
	ID        string
	OwnerID   string
	Name      string
	Company   string
	Email     string
	Status    string
	CreatedAt time.Time
}

// TimelinePhase is one stage of a client engagement. Phases are created by
// the store when the client is inserted.
type TimelinePhase struct {
	ID       int64
	ClientID string
	Name     string
	Position int
	Status   string
}

// TaskStatus represents the state of an agency task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	return s == TaskTodo || s == TaskInProgress || s == TaskDone
}

// Task is an agency to-do item, optionally attached to a client.
type Task struct {
	ID        string
	OwnerID   string
	ClientID  string
	Title     string
	Status    TaskStatus
	Priority  int
	DueAt     time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Meeting is a scheduled call with a client.
type Meeting struct {
	ID              string
	OwnerID         string
	ClientID        string
	Title           string
	StartsAt        time.Time
	DurationMinutes int
	Location        string
	CreatedAt       time.Time
}

// Contact is a member of an agency's marketing audience.
type Contact struct {
	ID        string
	OwnerID   string
	Email     string
	Name      string
	Segment   string
	CreatedAt time.Time
}

// AgencyOverview aggregates dashboard counters. Warnings lists the counters
// that could not be loaded and were reported as zero.
type AgencyOverview struct {
	Clients          int
	OpenTasks        int
	UpcomingMeetings int
	Contacts         int
	Warnings         []string
}
