package httphandler

import (
	"errors"
	"net/http"

	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// AuthCallback completes the hosted sign-in: it exchanges the authorization
// code, ensures the profile, sets the session cookie and redirects to the
// sanitized next path.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.svc.Auth == nil {
		writeError(w, http.StatusServiceUnavailable, "sign-in is temporarily unavailable")
		return
	}

	q := r.URL.Query()
	if msg := q.Get("error_description"); msg != "" {
		h.logger.Warn("sign-in aborted by provider", "reason", msg)
		http.Redirect(w, r, "/login?error=denied", http.StatusSeeOther)
		return
	}

	var verifier string
	if c, err := r.Cookie(PKCECookieName); err == nil {
		verifier = c.Value
	}
	clearPKCECookie(w, h.sessions.Secure())

	session, err := h.svc.Auth.ExchangeCode(r.Context(), q.Get("code"), verifier)
	if err != nil {
		if errors.Is(err, driven.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "sign-in is temporarily unavailable")
			return
		}
		h.logger.Warn("code exchange failed", "error", err)
		http.Redirect(w, r, "/login?error=exchange", http.StatusSeeOther)
		return
	}

	if _, err := h.svc.Access.SignIn(r.Context(), session); err != nil {
		h.logger.Error("ensure profile failed", "user", session.Identity.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	token, expires, err := h.sessions.Issue(session.Identity, session.ExpiresAt)
	if err != nil {
		h.logger.Error("issue session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.sessions.SetCookie(w, token, expires)

	http.Redirect(w, r, SanitizeNext(q.Get("next")), http.StatusSeeOther)
}

// SignOut clears the session cookie.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SetPKCECookie stores the code verifier for the callback. It lives for the
// ten minutes a sign-in attempt may take.
func SetPKCECookie(w http.ResponseWriter, verifier string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     PKCECookieName,
		Value:    verifier,
		Path:     "/auth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearPKCECookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     PKCECookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
