package realtime

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/botfleet/pkg/logger"
	"github.com/dmitrymomot/botfleet/svc/session"
)

func (h *Handler) listSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": h.sessions.List()})
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	handle, err := h.sessions.Create(r.Context(), tenant)
	if err != nil {
		h.sessionError(w, r, tenant, err)
		return
	}
	writeJSON(w, http.StatusAccepted, handle.Snapshot())
}

// getSession reports the current state so a reconnecting client can resume
// without creating a new session.
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	info, err := h.sessions.Request(r.Context(), tenant)
	if err != nil {
		h.sessionError(w, r, tenant, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// destroySession succeeds for unknown tenants.
func (h *Handler) destroySession(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	if err := h.sessions.Destroy(r.Context(), tenant); err != nil && !session.IsNotFound(err) {
		h.sessionError(w, r, tenant, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logoutSession(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	if err := h.sessions.Logout(r.Context(), tenant); err != nil {
		h.sessionError(w, r, tenant, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) purgeCredentials(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	if err := h.sessions.PurgeCredentials(r.Context(), tenant); err != nil {
		h.sessionError(w, r, tenant, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionError(w http.ResponseWriter, r *http.Request, tenant string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalidTenant):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, session.ErrRegistryClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, session.ErrNoCredentialStore):
		status = http.StatusNotImplemented
	}

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(logger.WithTenant(r.Context(), tenant), "session command failed", logger.Error(err))
	}
	writeError(w, status, err)
}
