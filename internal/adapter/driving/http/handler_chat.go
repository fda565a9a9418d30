package httphandler

import (
	"errors"
	"net/http"

	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// SendChat forwards a message to the onboarding assistant.
func (h *Handler) SendChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.metrics.chat("invalid")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Chat.Send(r.Context(), identity(r), application.ChatInput{
		Message:   req.Message,
		AgentID:   req.AgentID,
		SessionID: req.SessionID,
	})
	if err != nil {
		switch {
		case errors.Is(err, application.ErrInvalidInput):
			h.metrics.chat("invalid")
		case errors.Is(err, driven.ErrNotConfigured):
			h.metrics.chat("not_configured")
		default:
			h.metrics.chat("failed")
		}
		h.fail(w, r, "send chat", err, http.StatusBadGateway)
		return
	}

	h.metrics.chat("ok")
	writeJSON(w, http.StatusOK, chatResultResponse(res))
}

// ChatHistory returns the caller's transcript for a session.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.Chat.History(r.Context(), identity(r), r.PathValue("sessionID"))
	if err != nil {
		h.fail(w, r, "chat history", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(msgs, toChatMessageResponse))
}
