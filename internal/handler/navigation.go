package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/stitch-flow/internal/app"
	"github.com/msomdec/stitch-flow/internal/domain"
)

// NavigationHandler exposes the screen flow and the onboarding answers.
type NavigationHandler struct {
	app    *app.App
	logger *slog.Logger
}

// NewNavigationHandler creates a new NavigationHandler.
func NewNavigationHandler(a *app.App, logger *slog.Logger) *NavigationHandler {
	return &NavigationHandler{app: a, logger: logger}
}

// HandleState returns the full presentation state.
func (h *NavigationHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	h.writeState(w)
}

// HandleScreens lists every screen with its view.
func (h *NavigationHandler) HandleScreens(w http.ResponseWriter, r *http.Request) {
	screens := domain.Screens()
	views := make([]ScreenView, 0, len(screens))
	for _, s := range screens {
		v, err := DescribeScreen(s)
		if err != nil {
			writeServiceError(w, h.logger, "describe screen", err)
			return
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

type navigateRequest struct {
	Screen string `json:"screen"`
}

// HandleNavigate jumps to the requested screen.
func (h *NavigationHandler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	screen, err := domain.ParseScreen(req.Screen)
	if err != nil {
		writeServiceError(w, h.logger, "navigate", err)
		return
	}
	if err := h.app.Navigation.NavigateTo(screen); err != nil {
		writeServiceError(w, h.logger, "navigate", err)
		return
	}
	h.writeState(w)
}

// HandleAdvance follows the default continue edge.
func (h *NavigationHandler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Navigation.Advance(); err != nil {
		writeServiceError(w, h.logger, "advance", err)
		return
	}
	h.writeState(w)
}

type answerRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// HandleSaveAnswer stores one onboarding answer.
func (h *NavigationHandler) HandleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.app.Profiles.SaveOnboardingAnswer(r.Context(), domain.OnboardingField(req.Field), req.Value)
	if err != nil {
		writeServiceError(w, h.logger, "save onboarding answer", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(p))
}

// HandleCompleteOnboarding finishes onboarding and moves to the dashboard.
func (h *NavigationHandler) HandleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Navigation.CompleteOnboarding(r.Context()); err != nil {
		writeServiceError(w, h.logger, "complete onboarding", err)
		return
	}
	h.writeState(w)
}

// HandleResetOnboarding clears the answers and returns to splash.
func (h *NavigationHandler) HandleResetOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Navigation.ResetOnboarding(r.Context()); err != nil {
		writeServiceError(w, h.logger, "reset onboarding", err)
		return
	}
	h.writeState(w)
}

type cameraPermissionRequest struct {
	Permission string `json:"permission"`
}

// HandleCameraPermission branches on the platform's camera prompt result.
func (h *NavigationHandler) HandleCameraPermission(w http.ResponseWriter, r *http.Request) {
	var req cameraPermissionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	perm, err := domain.ParseCameraPermission(req.Permission)
	if err != nil {
		writeServiceError(w, h.logger, "camera permission", err)
		return
	}
	if _, err := h.app.Navigation.ResolveCameraPermission(perm); err != nil {
		writeServiceError(w, h.logger, "camera permission", err)
		return
	}
	h.writeState(w)
}

// HandleDeclineOffer follows the decline edge of the paywall.
func (h *NavigationHandler) HandleDeclineOffer(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Navigation.DeclineOffer(); err != nil {
		writeServiceError(w, h.logger, "decline offer", err)
		return
	}
	h.writeState(w)
}

type proRequest struct {
	IsPro bool `json:"isPro"`
}

// HandleSetPro records the subscription entitlement.
func (h *NavigationHandler) HandleSetPro(w http.ResponseWriter, r *http.Request) {
	var req proRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.app.Profiles.SetPro(r.Context(), req.IsPro)
	if err != nil {
		writeServiceError(w, h.logger, "set pro", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(p))
}

func (h *NavigationHandler) writeState(w http.ResponseWriter) {
	view, err := NewStateView(h.app.State())
	if err != nil {
		writeServiceError(w, h.logger, "build state", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
