package web

import (
	"errors"
	"net/http"

	"github.com/aqagent/aqagent/internal/sessions"
)

// handleGetSession serves GET /sessions/{id}, returning a cloned session
// snapshot per sessions.Store.Get's contract.
func (h *handlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "session id is required")
		return
	}

	session, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("get session failed", "session_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleDeleteSession serves DELETE /sessions/{id}, purging all state for
// the session (turns, documents, personal info, summary).
func (h *handlers) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "session id is required")
		return
	}

	if err := h.sessions.Purge(r.Context(), id); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("purge session failed", "session_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
