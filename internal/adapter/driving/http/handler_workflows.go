package httphandler

import (
	"errors"
	"mime"
	"net/http"
	"os"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// ListWorkflows returns the marketplace listing, optionally narrowed by
// ?category= and ?tier=.
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	filter := model.WorkflowFilter{Category: r.URL.Query().Get("category")}
	if raw := r.URL.Query().Get("tier"); raw != "" {
		tier, err := model.ParseTier(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.MaxTier = tier
	}

	wfs, err := h.svc.Downloads.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list workflows", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(wfs, toWorkflowResponse))
}

// DownloadWorkflow streams a workflow file as an attachment after the tier
// check and path confinement in the download service.
func (h *Handler) DownloadWorkflow(w http.ResponseWriter, r *http.Request) {
	dl, err := h.svc.Downloads.Prepare(r.Context(), identity(r), r.PathValue("slug"))
	if err != nil {
		h.metrics.download("rejected")
		h.fail(w, r, "prepare download", err, http.StatusInternalServerError)
		return
	}

	f, err := dl.Open()
	if err != nil {
		h.metrics.download("failed")
		if errors.Is(err, os.ErrNotExist) {
			h.fail(w, r, "open workflow file", driven.ErrNotFound, http.StatusInternalServerError)
			return
		}
		h.fail(w, r, "open workflow file", err, http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.metrics.download("failed")
		h.fail(w, r, "stat workflow file", err, http.StatusInternalServerError)
		return
	}

	h.metrics.download("ok")
	// HEAD and range requests are probes or resumed transfers, not new downloads.
	if r.Method == http.MethodGet && r.Header.Get("Range") == "" {
		h.svc.Downloads.Count(r.Context(), dl.Workflow)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, dl.Name, info.ModTime(), f)
}
