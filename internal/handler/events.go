package handler

import (
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/stitch-flow/internal/app"
	"github.com/msomdec/stitch-flow/internal/domain"
	"github.com/msomdec/stitch-flow/internal/service"
)

// EventsHandler streams the presentation state as datastar signal patches.
type EventsHandler struct {
	app    *app.App
	logger *slog.Logger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(a *app.App, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{app: a, logger: logger}
}

// HandleEvents sends the full state once on connect and again after every
// screen, profile or project change. Changes that arrive while a patch is
// being written are coalesced into the next one.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	changed := make(chan struct{}, 1)
	notify := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	// Subscribers run under the services' write locks; they only signal.
	defer h.app.Navigation.Subscribe(func(service.ScreenChange) { notify() })()
	defer h.app.Profiles.Subscribe(func(*domain.UserProfile) { notify() })()
	defer h.app.Projects.Subscribe(func(service.ProjectSnapshot) { notify() })()

	sse := datastar.NewSSE(w, r)
	if !h.patch(sse) {
		return
	}
	for {
		select {
		case <-sse.Context().Done():
			return
		case <-changed:
			if !h.patch(sse) {
				return
			}
		}
	}
}

// patch writes the current state. It reports false once the stream is
// unusable.
func (h *EventsHandler) patch(sse *datastar.ServerSentEventGenerator) bool {
	view, err := NewStateView(h.app.State())
	if err != nil {
		h.logger.Error("build state", "error", err)
		return false
	}
	if err := sse.MarshalAndPatchSignals(view); err != nil {
		h.logger.Debug("event stream closed", "error", err)
		return false
	}
	return true
}
