// Package storagetest holds the behavior every storage backend must share.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/storage"
)

// Suite is embedded by each backend's test suite. The backend's SetupTest must set Store.
type Suite struct {
	suite.Suite
	Store storage.Storage
	Ctx   context.Context
}

var baseTime = time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)

func (s *Suite) SetupSuite() {
	s.Ctx = context.Background()
}

func (s *Suite) saveEvent(id model.EventID, date string) *model.Event {
	event := &model.Event{
		ID:        id,
		Name:      "Event " + string(id),
		Date:      model.MustParseDate(date),
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	s.Require().NoError(s.Store.SaveEvent(s.Ctx, event))
	return event
}

func newGuest(id model.GuestID, eventID model.EventID, name string, offset time.Duration) *model.Guest {
	return &model.Guest{
		ID:              id,
		EventID:         eventID,
		DisplayName:     name,
		Category:        model.CategoryPayingAdult,
		AttendanceState: model.AttendanceAwaiting,
		CreatedAt:       baseTime.Add(offset),
		UpdatedAt:       baseTime.Add(offset),
	}
}

func checkInUpdate(id model.GuestID, at time.Time) model.AttendanceUpdate {
	return model.AttendanceUpdate{GuestID: id, State: model.AttendancePresent, CheckInAt: &at, At: at}
}

// Operator tests

func (s *Suite) TestSaveAndGetOperator() {
	operator := &model.Operator{ID: "op-1", DisplayName: "Desk One", CreatedAt: baseTime}
	s.Require().NoError(s.Store.SaveOperator(s.Ctx, operator))

	retrieved, err := s.Store.GetOperator(s.Ctx, "op-1")
	s.Require().NoError(err)
	s.Equal("Desk One", retrieved.DisplayName)
}

func (s *Suite) TestGetOperatorNotFound() {
	_, err := s.Store.GetOperator(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrOperatorNotFound)
}

func (s *Suite) TestRegisteredOperatorByUsername() {
	ro := &model.RegisteredOperator{
		OperatorID:   "op-1",
		Username:     "desk1",
		PasswordHash: "hash123",
		CreatedAt:    baseTime,
	}
	s.Require().NoError(s.Store.SaveRegisteredOperator(s.Ctx, ro))

	byID, err := s.Store.GetRegisteredOperator(s.Ctx, "op-1")
	s.Require().NoError(err)
	s.Equal("desk1", byID.Username)

	byName, err := s.Store.GetRegisteredOperatorByUsername(s.Ctx, "desk1")
	s.Require().NoError(err)
	s.Equal(model.OperatorID("op-1"), byName.OperatorID)

	_, err = s.Store.GetRegisteredOperatorByUsername(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrOperatorNotFound)
}

// Event tests

func (s *Suite) TestSaveAndGetEvent() {
	s.saveEvent("evt-1", "2025-06-14")

	event, err := s.Store.GetEvent(s.Ctx, "evt-1")
	s.Require().NoError(err)
	s.Equal(model.MustParseDate("2025-06-14"), event.Date)

	exists, err := s.Store.EventExists(s.Ctx, "evt-1")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.Store.EventExists(s.Ctx, "evt-2")
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.Store.GetEvent(s.Ctx, "evt-2")
	s.ErrorIs(err, model.ErrEventNotFound)
}

func (s *Suite) TestListEventsOrderedByDate() {
	s.saveEvent("evt-b", "2025-07-01")
	s.saveEvent("evt-a", "2025-06-14")
	s.saveEvent("evt-c", "2025-06-14")

	events, err := s.Store.ListEvents(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(model.EventID("evt-a"), events[0].ID)
	s.Equal(model.EventID("evt-c"), events[1].ID)
	s.Equal(model.EventID("evt-b"), events[2].ID)
}

// Guest tests

func (s *Suite) TestCreateAndListGuests() {
	s.saveEvent("evt-1", "2025-06-14")
	root := newGuest("g-root", "evt-1", "Maria", 2*time.Second)
	child := newGuest("g-child", "evt-1", "Ana", time.Second)
	child.Category = model.CategoryPayingChild
	dob := model.MustParseDate("2019-06-15")
	child.DateOfBirth = &dob
	rootID := root.ID
	child.ResponsibleID = &rootID

	s.Require().NoError(s.Store.CreateGuests(s.Ctx, []*model.Guest{root, child}))

	guests, err := s.Store.ListGuests(s.Ctx, "evt-1")
	s.Require().NoError(err)
	s.Require().Len(guests, 2)
	s.Equal(model.GuestID("g-child"), guests[0].ID)
	s.Equal(model.GuestID("g-root"), guests[1].ID)
	s.Require().NotNil(guests[0].ResponsibleID)
	s.Equal(rootID, *guests[0].ResponsibleID)
	s.Require().NotNil(guests[0].DateOfBirth)
	s.Equal(dob, *guests[0].DateOfBirth)

	other, err := s.Store.ListGuests(s.Ctx, "evt-2")
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *Suite) TestGetGuestNotFound() {
	_, err := s.Store.GetGuest(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrGuestNotFound)
}

func (s *Suite) TestDeleteGuest() {
	s.saveEvent("evt-1", "2025-06-14")
	s.Require().NoError(s.Store.CreateGuests(s.Ctx, []*model.Guest{newGuest("g-1", "evt-1", "Maria", 0)}))

	s.Require().NoError(s.Store.DeleteGuest(s.Ctx, "g-1"))

	_, err := s.Store.GetGuest(s.Ctx, "g-1")
	s.ErrorIs(err, model.ErrGuestNotFound)

	guests, err := s.Store.ListGuests(s.Ctx, "evt-1")
	s.Require().NoError(err)
	s.Empty(guests)

	// Deleting again is a no-op
	s.NoError(s.Store.DeleteGuest(s.Ctx, "g-1"))
}

// Attendance tests

func (s *Suite) TestUpdateAttendanceCommitsAll() {
	s.saveEvent("evt-1", "2025-06-14")
	s.Require().NoError(s.Store.CreateGuests(s.Ctx, []*model.Guest{
		newGuest("g-1", "evt-1", "Maria", 0),
		newGuest("g-2", "evt-1", "Ana", time.Second),
	}))

	at := baseTime.Add(time.Hour)
	err := s.Store.UpdateAttendance(s.Ctx, "evt-1", func(guests []*model.Guest) ([]model.AttendanceUpdate, error) {
		s.Len(guests, 2)
		return []model.AttendanceUpdate{checkInUpdate("g-1", at), checkInUpdate("g-2", at)}, nil
	})
	s.Require().NoError(err)

	for _, id := range []model.GuestID{"g-1", "g-2"} {
		g, err := s.Store.GetGuest(s.Ctx, id)
		s.Require().NoError(err)
		s.Equal(model.AttendancePresent, g.AttendanceState)
		s.Require().NotNil(g.CheckInAt)
		s.True(at.Equal(*g.CheckInAt))
	}
}

func (s *Suite) TestUpdateAttendancePlannerErrorWritesNothing() {
	s.saveEvent("evt-1", "2025-06-14")
	s.Require().NoError(s.Store.CreateGuests(s.Ctx, []*model.Guest{newGuest("g-1", "evt-1", "Maria", 0)}))

	planErr := errors.New("refused")
	err := s.Store.UpdateAttendance(s.Ctx, "evt-1", func(guests []*model.Guest) ([]model.AttendanceUpdate, error) {
		return nil, planErr
	})
	s.ErrorIs(err, planErr)

	g, err := s.Store.GetGuest(s.Ctx, "g-1")
	s.Require().NoError(err)
	s.Equal(model.AttendanceAwaiting, g.AttendanceState)
}

func (s *Suite) TestUpdateAttendanceInvalidTransitionWritesNothing() {
	s.saveEvent("evt-1", "2025-06-14")
	s.Require().NoError(s.Store.CreateGuests(s.Ctx, []*model.Guest{
		newGuest("g-1", "evt-1", "Maria", 0),
		newGuest("g-2", "evt-1", "Ana", time.Second),
	}))

	at := baseTime.Add(time.Hour)
	err := s.Store.UpdateAttendance(s.Ctx, "evt-1", func(guests []*model.Guest) ([]model.AttendanceUpdate, error) {
		return []model.AttendanceUpdate{
			checkInUpdate("g-1", at),
			// Check-out without check-in
			{GuestID: "g-2", State: model.AttendanceDeparted, CheckOutAt: &at, At: at},
		}, nil
	})
	s.ErrorIs(err, model.ErrInvalidTransition)

	g, err := s.Store.GetGuest(s.Ctx, "g-1")
	s.Require().NoError(err)
	s.Equal(model.AttendanceAwaiting, g.AttendanceState)
}

func (s *Suite) TestConcurrentCheckInsAppliedOnce() {
	s.saveEvent("evt-1", "2025-06-14")
	s.Require().NoError(s.Store.CreateGuests(s.Ctx, []*model.Guest{newGuest("g-1", "evt-1", "Maria", 0)}))

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			at := baseTime.Add(time.Duration(i+1) * time.Minute)
			didApply := false
			err := s.Store.UpdateAttendance(s.Ctx, "evt-1", func(guests []*model.Guest) ([]model.AttendanceUpdate, error) {
				didApply = false
				for _, g := range guests {
					if g.ID == "g-1" && g.AttendanceState == model.AttendanceAwaiting {
						didApply = true
						return []model.AttendanceUpdate{checkInUpdate(g.ID, at)}, nil
					}
				}
				return nil, nil
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("worker %d: %w", i, err))
				return
			}
			if didApply {
				applied++
			}
		}(i)
	}
	wg.Wait()

	s.Empty(errs)
	s.Equal(1, applied)

	g, err := s.Store.GetGuest(s.Ctx, "g-1")
	s.Require().NoError(err)
	s.Equal(model.AttendancePresent, g.AttendanceState)
}

// Draft tests

func (s *Suite) TestDraftRoundTrip() {
	attending := true
	dob := model.MustParseDate("2019-06-15")
	draft := &model.GuestGroupDraft{
		EventID:     "evt-1",
		Responsible: &model.DraftResponsible{Name: "Maria", Phone: "555-0100", SelfAttending: true},
		Children: []model.ChildEntry{
			{Name: "Ana", DateOfBirth: &dob},
		},
		Companion:        &model.CompanionChoice{Kind: model.CompanionSelf},
		AttendanceAnswer: &attending,
		UpdatedAt:        baseTime,
	}
	s.Require().NoError(s.Store.SaveDraft(s.Ctx, "sess-1", draft))

	retrieved, err := s.Store.GetDraft(s.Ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(draft.Responsible, retrieved.Responsible)
	s.Equal(draft.Children, retrieved.Children)
	s.Equal(draft.Companion, retrieved.Companion)
	s.Require().NotNil(retrieved.AttendanceAnswer)
	s.True(*retrieved.AttendanceAnswer)

	s.Require().NoError(s.Store.DeleteDraft(s.Ctx, "sess-1"))
	_, err = s.Store.GetDraft(s.Ctx, "sess-1")
	s.ErrorIs(err, model.ErrDraftNotFound)
}
