package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/guestdesk/internal/api/request"
	"github.com/mcoot/guestdesk/internal/api/response"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/eligibility"
	"github.com/mcoot/guestdesk/internal/services/event"
)

// EventHandler handles event endpoints
type EventHandler struct {
	eventService *event.Service
	policy       *eligibility.Policy
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *event.Service, policy *eligibility.Policy) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		policy:       policy,
	}
}

func eventIDFromPath(r *http.Request) model.EventID {
	return model.EventID(mux.Vars(r)["event_id"])
}

// Create handles POST /api/v1/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Date == "" {
		WriteError(w, model.NewValidationError("date", "is required"))
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		WriteError(w, model.NewValidationError("date", "must be YYYY-MM-DD"))
		return
	}

	e, err := h.eventService.CreateEvent(r.Context(), req.Name, date)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, "/api/v1/events/"+string(e.ID), response.EventFromModel(e))
}

// Get handles GET /api/v1/events/{event_id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.eventService.GetEvent(r.Context(), eventIDFromPath(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.EventFromModel(e))
}

// List handles GET /api/v1/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListEvents(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.EventsFromModel(events))
}

// Eligibility handles POST /api/v1/events/{event_id}/eligibility
func (h *EventHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	var req request.EligibilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	eventDate, err := h.eventService.GetEventDate(r.Context(), eventIDFromPath(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	assessments, err := h.policy.Evaluate(req.Children, eventDate)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.EligibilityFromAssessments(eventDate, h.policy.Threshold(), assessments))
}
