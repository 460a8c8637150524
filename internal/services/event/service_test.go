package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/guestdesk/internal/dependencies/mocks"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/storage/memory"
	"github.com/mcoot/guestdesk/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestCreateEvent() {
	s.random.QueueString("PARTY123")

	event, err := s.service.CreateEvent(s.ctx, "  Ana's birthday ", model.MustParseDate("2025-06-14"))
	s.Require().NoError(err)

	s.Equal(model.EventID("PARTY123"), event.ID)
	s.Equal("Ana's birthday", event.Name)
	s.Equal(s.clock.Now(), event.CreatedAt)

	stored, err := s.service.GetEvent(s.ctx, "PARTY123")
	s.Require().NoError(err)
	s.Equal(event.Name, stored.Name)
}

func (s *ServiceSuite) TestCreateEventRegeneratesOnCollision() {
	s.random.QueueString("PARTY123", "PARTY123", "PARTY456")

	_, err := s.service.CreateEvent(s.ctx, "First", model.MustParseDate("2025-06-14"))
	s.Require().NoError(err)

	second, err := s.service.CreateEvent(s.ctx, "Second", model.MustParseDate("2025-06-15"))
	s.Require().NoError(err)
	s.Equal(model.EventID("PARTY456"), second.ID)
}

func (s *ServiceSuite) TestCreateEventValidation() {
	_, err := s.service.CreateEvent(s.ctx, "", model.MustParseDate("2025-06-14"))
	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("name", verr.Field)

	_, err = s.service.CreateEvent(s.ctx, "Party", model.Date{})
	s.Require().ErrorAs(err, &verr)
	s.Equal("date", verr.Field)
}

func (s *ServiceSuite) TestGetEventDate() {
	s.random.QueueString("PARTY123")
	_, err := s.service.CreateEvent(s.ctx, "Party", model.MustParseDate("2025-06-14"))
	s.Require().NoError(err)

	date, err := s.service.GetEventDate(s.ctx, "PARTY123")
	s.Require().NoError(err)
	s.Equal(model.MustParseDate("2025-06-14"), date)
}

func (s *ServiceSuite) TestGetEventNotFound() {
	_, err := s.service.GetEventDate(s.ctx, "MISSING1")
	s.ErrorIs(err, model.ErrEventNotFound)
}

func (s *ServiceSuite) TestListEvents() {
	s.random.QueueString("LATER111", "SOONER22")
	_, _ = s.service.CreateEvent(s.ctx, "Later", model.MustParseDate("2025-07-01"))
	_, _ = s.service.CreateEvent(s.ctx, "Sooner", model.MustParseDate("2025-06-01"))

	events, err := s.service.ListEvents(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("Sooner", events[0].Name)
}
