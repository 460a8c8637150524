package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/guestdesk/internal/api/request"
	"github.com/mcoot/guestdesk/internal/api/response"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/registration"
)

// GuestHandler handles guest list endpoints
type GuestHandler struct {
	registration *registration.Service
}

// NewGuestHandler creates a new guest handler
func NewGuestHandler(registration *registration.Service) *GuestHandler {
	return &GuestHandler{
		registration: registration,
	}
}

func guestIDFromPath(r *http.Request) model.GuestID {
	return model.GuestID(mux.Vars(r)["guest_id"])
}

// SubmitGroup handles POST /api/v1/events/{event_id}/groups.
// The whole group is persisted or nothing is.
func (h *GuestHandler) SubmitGroup(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	guests, err := h.registration.SubmitGroup(r.Context(), eventIDFromPath(r), req)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, "/api/v1/events/"+string(eventIDFromPath(r))+"/guests", response.GuestsFromModel(guests))
}

// RegisterOnSite handles POST /api/v1/events/{event_id}/guests
func (h *GuestHandler) RegisterOnSite(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterGuestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	guest, err := h.registration.RegisterOnSite(r.Context(), eventIDFromPath(r), req)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, "/api/v1/events/"+string(guest.EventID)+"/guests", response.GuestFromModel(guest))
}

// List handles GET /api/v1/events/{event_id}/guests
func (h *GuestHandler) List(w http.ResponseWriter, r *http.Request) {
	guests, err := h.registration.ListGuests(r.Context(), eventIDFromPath(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GuestsFromModel(guests))
}

// Tree handles GET /api/v1/events/{event_id}/guests/tree
func (h *GuestHandler) Tree(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.registration.Tree(r.Context(), eventIDFromPath(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TreeFromModel(nodes))
}

// Remove handles DELETE /api/v1/guests/{guest_id}
func (h *GuestHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.registration.RemoveGuest(r.Context(), guestIDFromPath(r)); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
