package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mcoot/guestdesk/internal/api/apierr"
	"github.com/mcoot/guestdesk/internal/api/response"
	"github.com/mcoot/guestdesk/internal/model"
)

// remoteDrafts keeps confirmation drafts in the server's draft cache
type remoteDrafts struct {
	client *Client
}

func draftPath(id model.DraftSessionID) string {
	return fmt.Sprintf("/api/v1/drafts/%s", id)
}

func (d *remoteDrafts) SaveDraft(ctx context.Context, id model.DraftSessionID, draft *model.GuestGroupDraft) error {
	return d.client.DoContext(ctx, http.MethodPut, draftPath(id), draft, nil)
}

func (d *remoteDrafts) GetDraft(ctx context.Context, id model.DraftSessionID) (*model.GuestGroupDraft, error) {
	var draft model.GuestGroupDraft
	if err := d.client.DoContext(ctx, http.MethodGet, draftPath(id), nil, &draft); err != nil {
		if IsCode(err, apierr.CodeDraftNotFound) {
			return nil, model.ErrDraftNotFound
		}
		return nil, err
	}
	return &draft, nil
}

func (d *remoteDrafts) DeleteDraft(ctx context.Context, id model.DraftSessionID) error {
	return d.client.DoContext(ctx, http.MethodDelete, draftPath(id), nil, nil)
}

// remoteSubmitter posts assembled groups to the submission endpoint
type remoteSubmitter struct {
	client *Client
}

func (s *remoteSubmitter) SubmitGroup(ctx context.Context, eventID model.EventID, submission model.GroupSubmission) ([]*model.Guest, error) {
	var created []response.Guest
	path := fmt.Sprintf("/api/v1/events/%s/groups", eventID)
	if err := s.client.DoContext(ctx, http.MethodPost, path, submission, &created); err != nil {
		return nil, err
	}

	guests := make([]*model.Guest, len(created))
	for i, g := range created {
		guests[i] = guestFromResponse(g)
	}
	return guests, nil
}

func guestFromResponse(g response.Guest) *model.Guest {
	guest := &model.Guest{
		ID:               model.GuestID(g.ID),
		EventID:          model.EventID(g.EventID),
		DisplayName:      g.DisplayName,
		Category:         model.GuestCategory(g.Category),
		Phone:            g.Phone,
		DateOfBirth:      g.DateOfBirth,
		IsAtypical:       g.IsAtypical,
		AttendanceState:  model.AttendanceState(g.AttendanceState),
		CheckInAt:        g.CheckInAt,
		CheckOutAt:       g.CheckOutAt,
		RegisteredOnSite: g.RegisteredOnSite,
		CreatedAt:        g.CreatedAt,
	}
	if g.ResponsibleID != nil {
		id := model.GuestID(*g.ResponsibleID)
		guest.ResponsibleID = &id
	}
	return guest
}
