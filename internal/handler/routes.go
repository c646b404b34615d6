package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/stitch-flow/internal/app"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, a *app.App, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	nav := NewNavigationHandler(a, logger)
	projects := NewProjectHandler(a.Projects, logger)
	sessions := NewSessionHandler(a.Sessions, logger)
	events := NewEventsHandler(a, logger)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.HandleFunc("GET /api/state", nav.HandleState)
	mux.HandleFunc("GET /api/screens", nav.HandleScreens)
	mux.HandleFunc("POST /api/navigate", nav.HandleNavigate)
	mux.HandleFunc("POST /api/advance", nav.HandleAdvance)
	mux.HandleFunc("POST /api/onboarding/answers", nav.HandleSaveAnswer)
	mux.HandleFunc("POST /api/onboarding/complete", nav.HandleCompleteOnboarding)
	mux.HandleFunc("POST /api/onboarding/reset", nav.HandleResetOnboarding)
	mux.HandleFunc("POST /api/camera-permission", nav.HandleCameraPermission)
	mux.HandleFunc("POST /api/offer/decline", nav.HandleDeclineOffer)
	mux.HandleFunc("PUT /api/profile/pro", nav.HandleSetPro)

	mux.HandleFunc("GET /api/projects", projects.HandleList)
	mux.HandleFunc("POST /api/projects", projects.HandleCreate)
	mux.HandleFunc("GET /api/projects/active", projects.HandleGetActive)
	mux.HandleFunc("PUT /api/projects/active", projects.HandleSetActive)
	mux.HandleFunc("GET /api/projects/{id}", projects.HandleGet)
	mux.HandleFunc("PATCH /api/projects/{id}", projects.HandleUpdate)
	mux.HandleFunc("DELETE /api/projects/{id}", projects.HandleDelete)
	mux.HandleFunc("GET /api/projects/{id}/sessions", sessions.HandleListByProject)

	mux.HandleFunc("GET /api/sessions", sessions.HandleRecent)
	mux.HandleFunc("POST /api/sessions", sessions.HandleStart)
	mux.HandleFunc("GET /api/sessions/{id}", sessions.HandleGet)
	mux.HandleFunc("POST /api/sessions/{id}/rows", sessions.HandleAddRows)
	mux.HandleFunc("POST /api/sessions/{id}/stop", sessions.HandleStop)
	mux.HandleFunc("POST /api/sessions/{id}/correct", sessions.HandleCorrect)
	mux.HandleFunc("DELETE /api/sessions/{id}", sessions.HandleDelete)

	mux.HandleFunc("GET /api/events", events.HandleEvents)
}

// NewServer returns the full handler chain for a.
func NewServer(a *app.App, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	RegisterRoutes(mux, a, logger)
	return RequestLogger(logger, SecurityHeaders(mux))
}
