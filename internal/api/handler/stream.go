package handler

import (
	"net/http"

	"github.com/mcoot/guestdesk/internal/api/apierr"
	"github.com/mcoot/guestdesk/internal/api/middleware"
	"github.com/mcoot/guestdesk/internal/services/event"
	"github.com/mcoot/guestdesk/internal/sse"
)

// StreamHandler serves the live activity feed of an event
type StreamHandler struct {
	eventService *event.Service
	hubManager   *sse.HubManager
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(eventService *event.Service, hubManager *sse.HubManager) *StreamHandler {
	return &StreamHandler{
		eventService: eventService,
		hubManager:   hubManager,
	}
}

// Stream handles GET /api/v1/events/{event_id}/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	operator := middleware.MustGetOperator(r.Context())
	eventID := eventIDFromPath(r)

	if _, err := h.eventService.GetEvent(r.Context(), eventID); err != nil {
		WriteError(w, err)
		return
	}
	if _, ok := w.(http.Flusher); !ok {
		WriteError(w, apierr.NewStreamingUnsupportedError())
		return
	}

	sse.ServeSSE(w, r, h.hubManager, eventID, operator.ID)
}
