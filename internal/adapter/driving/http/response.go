package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// URLResponse carries a hosted-page URL the client should navigate to.
type URLResponse struct {
	URL string `json:"url"`
}

// WebhookResponse acknowledges a payment-processor delivery.
type WebhookResponse struct {
	Received bool   `json:"received"`
	Ignored  string `json:"ignored,omitempty"`
}

// ChatResponse is the assistant reply to a chat message.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// ChatMessageResponse is one transcript entry.
type ChatMessageResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	AgentID   string `json:"agent_id"`
	CreatedAt string `json:"created_at"`
}

// SubscriptionResponse describes the caller's plan.
type SubscriptionResponse struct {
	Tier              string `json:"tier"`
	Status            string `json:"status,omitempty"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  string `json:"current_period_end,omitempty"`
}

// WorkflowResponse is the JSON representation of a marketplace workflow.
type WorkflowResponse struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	RequiredTier string `json:"required_tier"`
	NodeCount    int    `json:"node_count"`
	Downloads    int    `json:"downloads"`
	DownloadURL  string `json:"download_url"`
}

// ClientResponse is the JSON representation of an agency client.
type ClientResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// PhaseResponse is one stage of a client timeline.
type PhaseResponse struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
	Status   string `json:"status"`
}

// TaskResponse is the JSON representation of an agency task.
type TaskResponse struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id,omitempty"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority int    `json:"priority"`
	DueAt    string `json:"due_at,omitempty"`
}

// MeetingResponse is the JSON representation of a meeting.
type MeetingResponse struct {
	ID              string `json:"id"`
	ClientID        string `json:"client_id,omitempty"`
	Title           string `json:"title"`
	StartsAt        string `json:"starts_at"`
	DurationMinutes int    `json:"duration_minutes"`
	Location        string `json:"location,omitempty"`
}

// ContactResponse is the JSON representation of an audience contact.
type ContactResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Segment string `json:"segment"`
}

// OverviewResponse carries the agency dashboard counters.
type OverviewResponse struct {
	Clients          int      `json:"clients"`
	OpenTasks        int      `json:"open_tasks"`
	UpcomingMeetings int      `json:"upcoming_meetings"`
	Contacts         int      `json:"contacts"`
	Warnings         []string `json:"warnings"`
}

// ProjectResponse is the JSON representation of a mission-board project.
type ProjectResponse struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	BudgetCents int64    `json:"budget_cents"`
	Skills      []string `json:"skills"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"created_at"`
}

// BidResponse is the JSON representation of a bid.
type BidResponse struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	FreelancerID string `json:"freelancer_id"`
	AmountCents  int64  `json:"amount_cents"`
	Message      string `json:"message"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// formatTime renders t as RFC 3339 in UTC; the zero time renders as "".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toChatMessageResponse(m model.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		Role:      string(m.Role),
		Content:   m.Content,
		AgentID:   m.AgentID,
		CreatedAt: formatTime(m.CreatedAt),
	}
}

func toSubscriptionResponse(tier model.Tier, sub *model.Subscription) SubscriptionResponse {
	resp := SubscriptionResponse{Tier: string(tier)}
	if sub != nil {
		resp.Status = string(sub.Status)
		resp.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		resp.CurrentPeriodEnd = formatTime(sub.CurrentPeriodEnd)
	}
	return resp
}

func toWorkflowResponse(wf model.Workflow) WorkflowResponse {
	return WorkflowResponse{
		Slug:         wf.Slug,
		Title:        wf.Title,
		Description:  wf.Description,
		Category:     wf.Category,
		RequiredTier: string(wf.RequiredTier),
		NodeCount:    wf.NodeCount,
		Downloads:    wf.Downloads,
		DownloadURL:  "/api/v1/workflows/" + wf.Slug + "/download",
	}
}

func toClientResponse(c model.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Company:   c.Company,
		Email:     c.Email,
		Status:    c.Status,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

func toTaskResponse(t model.Task) TaskResponse {
	return TaskResponse{
		ID:       t.ID,
		ClientID: t.ClientID,
		Title:    t.Title,
		Status:   string(t.Status),
		Priority: t.Priority,
		DueAt:    formatTime(t.DueAt),
	}
}

func toMeetingResponse(m model.Meeting) MeetingResponse {
	return MeetingResponse{
		ID:              m.ID,
		ClientID:        m.ClientID,
		Title:           m.Title,
		StartsAt:        formatTime(m.StartsAt),
		DurationMinutes: m.DurationMinutes,
		Location:        m.Location,
	}
}

func toContactResponse(c model.Contact) ContactResponse {
	return ContactResponse{ID: c.ID, Email: c.Email, Name: c.Name, Segment: c.Segment}
}

func toOverviewResponse(o model.AgencyOverview) OverviewResponse {
	warnings := o.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return OverviewResponse{
		Clients:          o.Clients,
		OpenTasks:        o.OpenTasks,
		UpcomingMeetings: o.UpcomingMeetings,
		Contacts:         o.Contacts,
		Warnings:         warnings,
	}
}

func toProjectResponse(p model.Project) ProjectResponse {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	return ProjectResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		BudgetCents: p.BudgetCents,
		Skills:      skills,
		Status:      string(p.Status),
		CreatedAt:   formatTime(p.CreatedAt),
	}
}

func toBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		ID:           b.ID,
		ProjectID:    b.ProjectID,
		FreelancerID: b.FreelancerID,
		AmountCents:  b.AmountCents,
		Message:      b.Message,
		Status:       string(b.Status),
		CreatedAt:    formatTime(b.CreatedAt),
	}
}

// mapSlice converts every element of in with fn, never returning nil so
// empty lists encode as [].
func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

// chatResultResponse adapts the service result.
func chatResultResponse(r application.ChatResult) ChatResponse {
	return ChatResponse{SessionID: r.SessionID, Reply: r.Reply}
}
