package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Message   string `json:"message" validate:"required,max=4000"`
	AgentID   string `json:"agent_id" validate:"max=64"`
	SessionID string `json:"session_id" validate:"omitempty,uuid"`
}

// CheckoutRequest is the body of POST /api/v1/billing/checkout.
type CheckoutRequest struct {
	Tier string `json:"tier" validate:"required,oneof=pro business"`
}

// ClientRequest is the body of POST /api/v1/agency/clients.
type ClientRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Company string `json:"company" validate:"max=200"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// TaskRequest is the body of POST /api/v1/agency/tasks.
type TaskRequest struct {
	ClientID string     `json:"client_id"`
	Title    string     `json:"title" validate:"required,max=300"`
	Priority int        `json:"priority" validate:"min=0,max=3"`
	DueAt    *time.Time `json:"due_at"`
}

// TaskStatusRequest is the body of PATCH /api/v1/agency/tasks/{id}.
type TaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=todo in_progress done"`
}

// MeetingRequest is the body of POST /api/v1/agency/meetings.
type MeetingRequest struct {
	ClientID        string    `json:"client_id"`
	Title           string    `json:"title" validate:"required,max=300"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"min=0,max=1440"`
	Location        string    `json:"location" validate:"max=300"`
}

// ContactRequest is the body of POST /api/v1/agency/contacts.
type ContactRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"max=200"`
	Segment string `json:"segment" validate:"max=64"`
}

// ProjectRequest is the body of POST /api/v1/missions/projects.
type ProjectRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=10000"`
	BudgetCents int64    `json:"budget_cents" validate:"gt=0"`
	Skills      []string `json:"skills" validate:"max=10,dive,max=40"`
}

// BidRequest is the body of POST /api/v1/missions/projects/{id}/bids.
type BidRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	Message     string `json:"message" validate:"max=4000"`
}

// newValidator returns a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a bounded JSON body into dst and validates it. The
// returned error message is safe to show to the caller.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body too large")
		}
		return errors.New("invalid request body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			messages := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				messages = append(messages, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
		}
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}
