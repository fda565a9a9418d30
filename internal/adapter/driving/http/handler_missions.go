package httphandler

import (
	"net/http"

	"github.com/automatrixhq/automatrix/internal/application"
)

func (h *Handler) ListOpenProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.Missions.ListOpen(r.Context())
	if err != nil {
		h.fail(w, r, "list open projects", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(projects, toProjectResponse))
}

func (h *Handler) ListMyProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.Missions.ListMine(r.Context(), identity(r).UserID)
	if err != nil {
		h.fail(w, r, "list my projects", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(projects, toProjectResponse))
}

func (h *Handler) PostProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.svc.Missions.PostProject(r.Context(), identity(r).UserID, application.ProjectInput{
		Title:       req.Title,
		Description: req.Description,
		BudgetCents: req.BudgetCents,
		Skills:      req.Skills,
	})
	if err != nil {
		h.fail(w, r, "post project", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Missions.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "get project", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// ListBids returns every bid to the project owner and only their own to
// anyone else.
func (h *Handler) ListBids(w http.ResponseWriter, r *http.Request) {
	bids, err := h.svc.Missions.ListBids(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "list bids", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(bids, toBidResponse))
}

func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var req BidRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bid, err := h.svc.Missions.PlaceBid(r.Context(), identity(r).UserID, r.PathValue("id"), application.BidInput{
		AmountCents: req.AmountCents,
		Message:     req.Message,
	})
	if err != nil {
		h.fail(w, r, "place bid", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toBidResponse(bid))
}

func (h *Handler) AcceptBid(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Missions.AcceptBid(r.Context(), identity(r).UserID, r.PathValue("id"), r.PathValue("bidID"))
	if err != nil {
		h.fail(w, r, "accept bid", err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
