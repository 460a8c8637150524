package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mcoot/guestdesk/internal/api/response"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/storage"
)

// maxDraftBytes bounds an uploaded draft body
const maxDraftBytes = 64 << 10

// DraftHandler serves the per-session confirmation draft cache.
// Session ids are client-generated uuids.
type DraftHandler struct {
	storage storage.Storage
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(storage storage.Storage) *DraftHandler {
	return &DraftHandler{
		storage: storage,
	}
}

func sessionIDFromPath(r *http.Request) (model.DraftSessionID, error) {
	raw := mux.Vars(r)["session_id"]
	if _, err := uuid.Parse(raw); err != nil {
		return "", NewInvalidRequestError("session_id must be a uuid")
	}
	return model.DraftSessionID(raw), nil
}

// Get handles GET /api/v1/drafts/{session_id}
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	draft, err := h.storage.GetDraft(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, draft)
}

// Put handles PUT /api/v1/drafts/{session_id}
func (h *DraftHandler) Put(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDraftBytes)
	var draft model.GuestGroupDraft
	if !decodeJSON(w, r, &draft) {
		return
	}

	exists, err := h.storage.EventExists(r.Context(), draft.EventID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !exists {
		WriteError(w, model.ErrEventNotFound)
		return
	}

	if err := h.storage.SaveDraft(r.Context(), id, &draft); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Delete handles DELETE /api/v1/drafts/{session_id}
func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.storage.DeleteDraft(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
