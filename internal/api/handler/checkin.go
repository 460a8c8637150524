package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/guestdesk/internal/api/response"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/checkin"
)

// CheckInHandler handles attendance endpoints
type CheckInHandler struct {
	controller *checkin.Controller
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(controller *checkin.Controller) *CheckInHandler {
	return &CheckInHandler{
		controller: controller,
	}
}

type attendanceOp func(ctx context.Context, id model.GuestID) (*model.GroupResult, error)

func (h *CheckInHandler) serve(w http.ResponseWriter, r *http.Request, op attendanceOp) {
	result, err := op(r.Context(), guestIDFromPath(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GroupResultFromModel(result))
}

// CheckIn handles POST /api/v1/guests/{guest_id}/check-in
func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.controller.CheckIn)
}

// CheckOut handles POST /api/v1/guests/{guest_id}/check-out
func (h *CheckInHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.controller.CheckOut)
}

// CheckInGroup handles POST /api/v1/guests/{guest_id}/group/check-in
func (h *CheckInHandler) CheckInGroup(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.controller.CheckInGroup)
}

// CheckOutGroup handles POST /api/v1/guests/{guest_id}/group/check-out
func (h *CheckInHandler) CheckOutGroup(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.controller.CheckOutGroup)
}
