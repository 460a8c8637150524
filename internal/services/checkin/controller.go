package checkin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/guestdesk/internal/dependencies/clock"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/hierarchy"
	"github.com/mcoot/guestdesk/internal/storage"
)

// Notifier is told about committed attendance changes
type Notifier interface {
	AttendanceChanged(ctx context.Context, result *model.GroupResult, group bool)
}

// Controller moves guests through awaiting -> present -> departed, either one at a time
// or cascading from a responsible guest to its direct dependents
type Controller struct {
	storage  storage.Storage
	clock    clock.Clock
	notifier Notifier
	logger   *slog.Logger
}

// NewController creates a new check-in Controller. notifier may be nil.
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	notifier Notifier,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  storage,
		clock:    clock,
		notifier: notifier,
		logger:   logger,
	}
}

// planFunc decides the per-member outcome and the updates to commit.
// members[0] is the guest the operation was invoked on.
type planFunc func(members []*model.Guest, now time.Time) ([]model.MemberResult, []model.AttendanceUpdate, error)

// CheckInGroup checks in the responsible guest and its direct dependents. Members already
// present or departed are reported as already_checked_in and left untouched.
func (c *Controller) CheckInGroup(ctx context.Context, responsibleID model.GuestID) (*model.GroupResult, error) {
	return c.run(ctx, responsibleID, true, planCheckIn)
}

// CheckOutGroup checks out the responsible guest and its direct dependents. A dependent
// that never arrived is reported as not_checked_in while the others check out; a
// responsible guest that never arrived fails the whole operation with ErrNotCheckedIn.
func (c *Controller) CheckOutGroup(ctx context.Context, responsibleID model.GuestID) (*model.GroupResult, error) {
	return c.run(ctx, responsibleID, true, planCheckOut)
}

// CheckIn checks in a single guest
func (c *Controller) CheckIn(ctx context.Context, guestID model.GuestID) (*model.GroupResult, error) {
	return c.run(ctx, guestID, false, planCheckIn)
}

// CheckOut checks out a single guest; a guest that never arrived fails with ErrNotCheckedIn
func (c *Controller) CheckOut(ctx context.Context, guestID model.GuestID) (*model.GroupResult, error) {
	return c.run(ctx, guestID, false, planCheckOut)
}

func (c *Controller) run(ctx context.Context, id model.GuestID, group bool, plan planFunc) (*model.GroupResult, error) {
	notFound := model.ErrGuestNotFound
	if group {
		notFound = model.ErrGroupNotFound
	}

	root, err := c.storage.GetGuest(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrGuestNotFound) {
			return nil, notFound
		}
		return nil, err
	}

	now := c.clock.Now()
	var result *model.GroupResult

	err = c.storage.UpdateAttendance(ctx, root.EventID, func(guests []*model.Guest) ([]model.AttendanceUpdate, error) {
		// The planner may be re-run on a fresh snapshot; only the last run's result counts
		result = nil

		members, err := resolveMembers(guests, id, group)
		if err != nil {
			if errors.Is(err, model.ErrGroupNotFound) {
				return nil, notFound
			}
			return nil, err
		}

		memberResults, updates, err := plan(members, now)
		if err != nil {
			return nil, err
		}
		result = &model.GroupResult{
			EventID:       root.EventID,
			ResponsibleID: id,
			Members:       memberResults,
		}
		return updates, nil
	})
	if err != nil {
		c.logger.Warn("attendance update failed",
			slog.String("event_id", string(root.EventID)),
			slog.String("guest_id", string(id)),
			slog.Bool("group", group),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("attendance updated",
		slog.String("event_id", string(root.EventID)),
		slog.String("guest_id", string(id)),
		slog.Bool("group", group),
		slog.Int("members", len(result.Members)),
		slog.Int("applied", result.AppliedCount()),
	)
	if c.notifier != nil && result.AppliedCount() > 0 {
		c.notifier.AttendanceChanged(ctx, result, group)
	}
	return result, nil
}

func resolveMembers(guests []*model.Guest, id model.GuestID, group bool) ([]*model.Guest, error) {
	if group {
		node, err := hierarchy.ResolveGroup(guests, id)
		if err != nil {
			return nil, err
		}
		return hierarchy.Members(node), nil
	}
	for _, g := range guests {
		if g.ID == id {
			return []*model.Guest{g}, nil
		}
	}
	return nil, model.ErrGroupNotFound
}

func planCheckIn(members []*model.Guest, now time.Time) ([]model.MemberResult, []model.AttendanceUpdate, error) {
	results := make([]model.MemberResult, 0, len(members))
	var updates []model.AttendanceUpdate

	for i, g := range members {
		result := memberResult(g, i == 0)
		if g.AttendanceState == model.AttendanceAwaiting {
			checkIn := now
			updates = append(updates, model.AttendanceUpdate{
				GuestID:   g.ID,
				State:     model.AttendancePresent,
				CheckInAt: &checkIn,
				At:        now,
			})
			result.Outcome = model.OutcomeCheckedIn
			result.State = model.AttendancePresent
		} else {
			result.Outcome = model.OutcomeAlreadyCheckedIn
		}
		results = append(results, result)
	}
	return results, updates, nil
}

func planCheckOut(members []*model.Guest, now time.Time) ([]model.MemberResult, []model.AttendanceUpdate, error) {
	results := make([]model.MemberResult, 0, len(members))
	var updates []model.AttendanceUpdate

	for i, g := range members {
		result := memberResult(g, i == 0)
		switch g.AttendanceState {
		case model.AttendancePresent:
			checkOut := now
			if g.CheckInAt != nil && checkOut.Before(*g.CheckInAt) {
				// Clock skew between operators must not produce a departure before arrival
				checkOut = *g.CheckInAt
			}
			updates = append(updates, model.AttendanceUpdate{
				GuestID:    g.ID,
				State:      model.AttendanceDeparted,
				CheckOutAt: &checkOut,
				At:         now,
			})
			result.Outcome = model.OutcomeCheckedOut
			result.State = model.AttendanceDeparted
		case model.AttendanceDeparted:
			result.Outcome = model.OutcomeAlreadyCheckedOut
		default:
			if i == 0 {
				return nil, nil, model.ErrNotCheckedIn
			}
			result.Outcome = model.OutcomeNotCheckedIn
		}
		results = append(results, result)
	}
	return results, updates, nil
}

func memberResult(g *model.Guest, isResponsible bool) model.MemberResult {
	return model.MemberResult{
		GuestID:       g.ID,
		DisplayName:   g.DisplayName,
		IsResponsible: isResponsible,
		State:         g.AttendanceState,
	}
}
