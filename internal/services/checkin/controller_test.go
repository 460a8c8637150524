package checkin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/guestdesk/internal/dependencies/mocks"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/storage"
	"github.com/mcoot/guestdesk/internal/storage/memory"
	redisstorage "github.com/mcoot/guestdesk/internal/storage/redis"
	"github.com/mcoot/guestdesk/internal/testutil"
)

type recordingNotifier struct {
	mu      sync.Mutex
	results []*model.GroupResult
}

func (n *recordingNotifier) AttendanceChanged(ctx context.Context, result *model.GroupResult, group bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, result)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}

// ControllerSuite runs against the storage returned by newStorage
type ControllerSuite struct {
	suite.Suite
	newStorage func(t *testing.T) storage.Storage
	storage    storage.Storage
	clock      *mocks.MockClock
	notifier   *recordingNotifier
	controller *Controller
	ctx        context.Context
}

func TestControllerSuiteMemory(t *testing.T) {
	suite.Run(t, &ControllerSuite{
		newStorage: func(t *testing.T) storage.Storage { return memory.New() },
	})
}

func TestControllerSuiteRedis(t *testing.T) {
	suite.Run(t, &ControllerSuite{
		newStorage: func(t *testing.T) storage.Storage {
			mini := miniredis.RunT(t)
			client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
			return redisstorage.NewWithClient(client, redisstorage.DefaultConfig())
		},
	})
}

func (s *ControllerSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = s.newStorage(s.T())
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 14, 14, 0, 0, 0, time.UTC))
	s.notifier = &recordingNotifier{}
	s.controller = NewController(s.storage, s.clock, s.notifier, testutil.NopLogger())

	s.seedFamily()
}

// seedFamily creates adult "1" with children "2" and "3", plus an unrelated adult "4"
func (s *ControllerSuite) seedFamily() {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	responsible := model.GuestID("1")
	newGuest := func(id, name string, offset int, dependent bool) *model.Guest {
		g := &model.Guest{
			ID:              model.GuestID(id),
			EventID:         "evt-1",
			DisplayName:     name,
			Category:        model.CategoryPayingAdult,
			AttendanceState: model.AttendanceAwaiting,
			CreatedAt:       base.Add(time.Duration(offset) * time.Second),
		}
		if dependent {
			g.Category = model.CategoryPayingChild
			g.ResponsibleID = &responsible
		}
		return g
	}
	s.Require().NoError(s.storage.CreateGuests(s.ctx, []*model.Guest{
		newGuest("1", "Maria", 0, false),
		newGuest("2", "Ana", 1, true),
		newGuest("3", "Bia", 2, true),
		newGuest("4", "Jo", 3, false),
	}))
}

func (s *ControllerSuite) outcomes(result *model.GroupResult) map[model.GuestID]model.CheckInOutcome {
	out := make(map[model.GuestID]model.CheckInOutcome, len(result.Members))
	for _, m := range result.Members {
		out[m.GuestID] = m.Outcome
	}
	return out
}

func (s *ControllerSuite) state(id model.GuestID) model.AttendanceState {
	g, err := s.storage.GetGuest(s.ctx, id)
	s.Require().NoError(err)
	return g.AttendanceState
}

// CheckInGroup tests

func (s *ControllerSuite) TestCheckInGroupThenAgain() {
	result, err := s.controller.CheckInGroup(s.ctx, "1")
	s.Require().NoError(err)

	s.Require().Len(result.Members, 3)
	s.True(result.Members[0].IsResponsible)
	for _, m := range result.Members {
		s.Equal(model.OutcomeCheckedIn, m.Outcome)
		s.Equal(model.AttendancePresent, m.State)
	}
	s.Equal(3, result.AppliedCount())
	s.Equal(model.AttendanceAwaiting, s.state("4"))

	first, err := s.storage.GetGuest(s.ctx, "2")
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	again, err := s.controller.CheckInGroup(s.ctx, "1")
	s.Require().NoError(err)
	for _, m := range again.Members {
		s.Equal(model.OutcomeAlreadyCheckedIn, m.Outcome)
	}
	s.Equal(0, again.AppliedCount())

	second, err := s.storage.GetGuest(s.ctx, "2")
	s.Require().NoError(err)
	s.True(first.CheckInAt.Equal(*second.CheckInAt))
	s.Equal(1, s.notifier.count())
}

func (s *ControllerSuite) TestCheckInGroupPartiallyPresent() {
	_, err := s.controller.CheckIn(s.ctx, "2")
	s.Require().NoError(err)

	result, err := s.controller.CheckInGroup(s.ctx, "1")
	s.Require().NoError(err)

	outcomes := s.outcomes(result)
	s.Equal(model.OutcomeCheckedIn, outcomes["1"])
	s.Equal(model.OutcomeAlreadyCheckedIn, outcomes["2"])
	s.Equal(model.OutcomeCheckedIn, outcomes["3"])
}

func (s *ControllerSuite) TestCheckInGroupOfOne() {
	result, err := s.controller.CheckInGroup(s.ctx, "4")
	s.Require().NoError(err)
	s.Require().Len(result.Members, 1)
	s.Equal(model.OutcomeCheckedIn, result.Members[0].Outcome)
}

func (s *ControllerSuite) TestCheckInGroupUnknown() {
	_, err := s.controller.CheckInGroup(s.ctx, "999")
	s.ErrorIs(err, model.ErrGroupNotFound)
}

func (s *ControllerSuite) TestDepartedGuestNotReadmitted() {
	_, err := s.controller.CheckInGroup(s.ctx, "1")
	s.Require().NoError(err)
	_, err = s.controller.CheckOutGroup(s.ctx, "1")
	s.Require().NoError(err)

	result, err := s.controller.CheckInGroup(s.ctx, "1")
	s.Require().NoError(err)
	for _, m := range result.Members {
		s.Equal(model.OutcomeAlreadyCheckedIn, m.Outcome)
		s.Equal(model.AttendanceDeparted, m.State)
	}
}

// CheckOutGroup tests

func (s *ControllerSuite) TestCheckOutGroupWithAwaitingDependent() {
	_, err := s.controller.CheckIn(s.ctx, "1")
	s.Require().NoError(err)
	_, err = s.controller.CheckIn(s.ctx, "2")
	s.Require().NoError(err)

	s.clock.Advance(3 * time.Hour)
	result, err := s.controller.CheckOutGroup(s.ctx, "1")
	s.Require().NoError(err)

	outcomes := s.outcomes(result)
	s.Equal(model.OutcomeCheckedOut, outcomes["1"])
	s.Equal(model.OutcomeCheckedOut, outcomes["2"])
	s.Equal(model.OutcomeNotCheckedIn, outcomes["3"])
	s.Equal(model.AttendanceDeparted, s.state("2"))
	s.Equal(model.AttendanceAwaiting, s.state("3"))

	g, err := s.storage.GetGuest(s.ctx, "1")
	s.Require().NoError(err)
	s.False(g.CheckOutAt.Before(*g.CheckInAt))
}

func (s *ControllerSuite) TestCheckOutGroupAwaitingRootAborts() {
	_, err := s.controller.CheckIn(s.ctx, "2")
	s.Require().NoError(err)

	_, err = s.controller.CheckOutGroup(s.ctx, "1")
	s.ErrorIs(err, model.ErrNotCheckedIn)
	s.Equal(model.AttendancePresent, s.state("2"))
}

func (s *ControllerSuite) TestCheckOutTwice() {
	_, err := s.controller.CheckInGroup(s.ctx, "1")
	s.Require().NoError(err)
	_, err = s.controller.CheckOutGroup(s.ctx, "1")
	s.Require().NoError(err)

	result, err := s.controller.CheckOutGroup(s.ctx, "1")
	s.Require().NoError(err)
	for _, m := range result.Members {
		s.Equal(model.OutcomeAlreadyCheckedOut, m.Outcome)
	}
}

func (s *ControllerSuite) TestCheckOutClampedToCheckIn() {
	_, err := s.controller.CheckIn(s.ctx, "4")
	s.Require().NoError(err)

	// Another operator's clock runs behind
	s.clock.Advance(-time.Minute)
	_, err = s.controller.CheckOut(s.ctx, "4")
	s.Require().NoError(err)

	g, err := s.storage.GetGuest(s.ctx, "4")
	s.Require().NoError(err)
	s.True(g.CheckOutAt.Equal(*g.CheckInAt))
}

// Single guest tests

func (s *ControllerSuite) TestSingleCheckOutBeforeCheckIn() {
	_, err := s.controller.CheckOut(s.ctx, "4")
	s.ErrorIs(err, model.ErrNotCheckedIn)
}

func (s *ControllerSuite) TestSingleCheckInUnknown() {
	_, err := s.controller.CheckIn(s.ctx, "999")
	s.ErrorIs(err, model.ErrGuestNotFound)
}

func (s *ControllerSuite) TestSingleCheckInLeavesGroupAlone() {
	_, err := s.controller.CheckIn(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal(model.AttendancePresent, s.state("1"))
	s.Equal(model.AttendanceAwaiting, s.state("2"))
}

// Concurrency tests

func (s *ControllerSuite) TestConcurrentOverlappingGroupCheckIns() {
	const operators = 6
	var wg sync.WaitGroup
	results := make([]*model.GroupResult, operators)
	errs := make([]error, operators)

	for i := 0; i < operators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Alternate between the family and a single member of it
			if i%2 == 0 {
				results[i], errs[i] = s.controller.CheckInGroup(s.ctx, "1")
			} else {
				results[i], errs[i] = s.controller.CheckIn(s.ctx, "2")
			}
		}(i)
	}
	wg.Wait()

	applied := map[model.GuestID]int{}
	for i := 0; i < operators; i++ {
		s.Require().NoError(errs[i])
		for _, m := range results[i].Members {
			if m.Outcome.Applied() {
				applied[m.GuestID]++
			}
		}
	}
	s.Equal(map[model.GuestID]int{"1": 1, "2": 1, "3": 1}, applied)
	for _, id := range []model.GuestID{"1", "2", "3"} {
		s.Equal(model.AttendancePresent, s.state(id))
	}
}
