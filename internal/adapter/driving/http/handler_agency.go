package httphandler

import (
	"net/http"

	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// AgencyOverview returns the dashboard counters. Failed counts come back as
// zero with a warning rather than failing the request.
func (h *Handler) AgencyOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toOverviewResponse(h.svc.Agency.Overview(r.Context(), identity(r).UserID)))
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.Agency.ListClients(r.Context(), identity(r).UserID)
	if err != nil {
		h.fail(w, r, "list clients", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(clients, toClientResponse))
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.svc.Agency.CreateClient(r.Context(), identity(r).UserID, application.ClientInput{
		Name:    req.Name,
		Company: req.Company,
		Email:   req.Email,
	})
	if err != nil {
		h.fail(w, r, "create client", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toClientResponse(c))
}

func (h *Handler) ClientTimeline(w http.ResponseWriter, r *http.Request) {
	phases, err := h.svc.Agency.ClientTimeline(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "client timeline", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(phases, func(p model.TimelinePhase) PhaseResponse {
		return PhaseResponse{Name: p.Name, Position: p.Position, Status: p.Status}
	}))
}

// ListTasks returns the caller's tasks, optionally filtered by ?status=.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	status := model.TaskStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown task status")
		return
	}

	tasks, err := h.svc.Agency.ListTasks(r.Context(), identity(r).UserID, status)
	if err != nil {
		h.fail(w, r, "list tasks", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(tasks, toTaskResponse))
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := application.TaskInput{ClientID: req.ClientID, Title: req.Title, Priority: req.Priority}
	if req.DueAt != nil {
		in.DueAt = *req.DueAt
	}

	task, err := h.svc.Agency.CreateTask(r.Context(), identity(r).UserID, in)
	if err != nil {
		h.fail(w, r, "create task", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

func (h *Handler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req TaskStatusRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.svc.Agency.UpdateTaskStatus(r.Context(), identity(r).UserID, r.PathValue("id"), model.TaskStatus(req.Status))
	if err != nil {
		h.fail(w, r, "update task", err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.svc.Agency.UpcomingMeetings(r.Context(), identity(r).UserID)
	if err != nil {
		h.fail(w, r, "list meetings", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(meetings, toMeetingResponse))
}

func (h *Handler) ScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	var req MeetingRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.svc.Agency.ScheduleMeeting(r.Context(), identity(r).UserID, application.MeetingInput{
		ClientID:        req.ClientID,
		Title:           req.Title,
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
	})
	if err != nil {
		h.fail(w, r, "schedule meeting", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toMeetingResponse(m))
}

// ListContacts returns the caller's audience, optionally one ?segment=.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.svc.Agency.ListContacts(r.Context(), identity(r).UserID, r.URL.Query().Get("segment"))
	if err != nil {
		h.fail(w, r, "list contacts", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(contacts, toContactResponse))
}

func (h *Handler) AddContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.svc.Agency.AddContact(r.Context(), identity(r).UserID, application.ContactInput{
		Email:   req.Email,
		Name:    req.Name,
		Segment: req.Segment,
	})
	if err != nil {
		h.fail(w, r, "add contact", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toContactResponse(c))
}
