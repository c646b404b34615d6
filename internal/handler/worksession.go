package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/stitch-flow/internal/service"
)

// SessionHandler handles work session HTTP requests.
type SessionHandler struct {
	sessions *service.WorkSessionService
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.WorkSessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

type startSessionRequest struct {
	ProjectID string `json:"projectId"`
}

type rowsRequest struct {
	Delta int `json:"delta"`
}

type correctRequest struct {
	Rows int `json:"rows"`
}

// HandleStart opens a work session.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := h.sessions.Start(r.Context(), req.ProjectID)
	if err != nil {
		writeServiceError(w, h.logger, "start session", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionView(session))
}

// HandleGet returns one session.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session))
}

// HandleRecent lists the most recent sessions. The optional limit query
// parameter defaults to 20.
func (h *SessionHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	sessions, err := h.sessions.Recent(r.Context(), limit)
	if err != nil {
		writeServiceError(w, h.logger, "list recent sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionViews(sessions))
}

// HandleListByProject lists a project's sessions, newest first.
func (h *SessionHandler) HandleListByProject(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListByProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, "list project sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionViews(sessions))
}

// HandleAddRows adjusts the row count of an open session.
func (h *SessionHandler) HandleAddRows(w http.ResponseWriter, r *http.Request) {
	var req rowsRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := h.sessions.AddRows(r.Context(), r.PathValue("id"), req.Delta)
	if err != nil {
		writeServiceError(w, h.logger, "add rows", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session))
}

// HandleStop finalizes a session and credits its rows to the project.
func (h *SessionHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Stop(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, "stop session", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session))
}

// HandleCorrect replaces the row count of a finalized session.
func (h *SessionHandler) HandleCorrect(w http.ResponseWriter, r *http.Request) {
	var req correctRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := h.sessions.Correct(r.Context(), r.PathValue("id"), req.Rows)
	if err != nil {
		writeServiceError(w, h.logger, "correct session", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session))
}

// HandleDelete removes a session. Rows already credited stay on the project.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
