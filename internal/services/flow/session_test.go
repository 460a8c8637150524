package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/guestdesk/internal/dependencies/mocks"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/eligibility"
	"github.com/mcoot/guestdesk/internal/storage/memory"
	"github.com/mcoot/guestdesk/internal/testutil"
)

// fakeSubmitter records submissions and returns a queued result
type fakeSubmitter struct {
	mu      sync.Mutex
	calls   []model.GroupSubmission
	err     error
	release chan struct{} // When set, SubmitGroup blocks until it is closed or ctx ends
}

func (f *fakeSubmitter) SubmitGroup(ctx context.Context, eventID model.EventID, submission model.GroupSubmission) ([]*model.Guest, error) {
	f.mu.Lock()
	f.calls = append(f.calls, submission)
	err := f.err
	release := f.release
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	guests := make([]*model.Guest, len(submission.Guests))
	for i, r := range submission.Guests {
		guests[i] = &model.Guest{ID: model.GuestID(r.DisplayName), EventID: eventID, DisplayName: r.DisplayName}
	}
	return guests, nil
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type SessionSuite struct {
	suite.Suite
	ctx       context.Context
	flow      *Flow
	drafts    *memory.Storage
	submitter *fakeSubmitter
	clock     *mocks.MockClock
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	s.flow = New(eligibility.New(eligibility.DefaultConfig()), "evt-1", model.MustParseDate("2025-06-14"))
	s.drafts = memory.New()
	s.submitter = &fakeSubmitter{}
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func (s *SessionSuite) start(id model.DraftSessionID) *Session {
	session, err := StartSession(s.ctx, s.flow, id, s.drafts, s.submitter, s.clock, testutil.NopLogger())
	s.Require().NoError(err)
	return session
}

func (s *SessionSuite) dispatch(session *Session, action Action) Step {
	step, err := session.Dispatch(s.ctx, action)
	s.Require().NoError(err)
	return step
}

// toCompanion walks a fresh session to the companion step
func (s *SessionSuite) toCompanion(session *Session) {
	s.dispatch(session, SubmitResponsible{Name: "Maria", Phone: "5555-0100-1", SelfAttending: boolPtr(true)})
	step := s.dispatch(session, SubmitChildren{Children: []model.ChildEntry{childEntry("Ana", "2021-01-01", false)}})
	s.Require().IsType(CollectingCompanion{}, step)
}

func (s *SessionSuite) TestDraftSavedAfterEachStep() {
	session := s.start("sess-1")
	s.dispatch(session, SubmitResponsible{Name: "Maria", Phone: "5555-0100-1", SelfAttending: boolPtr(true)})

	draft, err := s.drafts.GetDraft(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal("Maria", draft.Responsible.Name)
	s.Equal(s.clock.Now(), draft.UpdatedAt)
}

func (s *SessionSuite) TestResumeAtSameStep() {
	session := s.start("sess-1")
	s.toCompanion(session)
	before := session.Step()

	resumed := s.start("sess-1")

	stored, err := s.drafts.GetDraft(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(before.Name(), resumed.Step().Name())
	s.Equal(before.Draft().Children, resumed.Step().Draft().Children)
	s.Equal(s.flow.InitialStep(stored), resumed.Step())
	s.Equal(0, s.submitter.callCount())
}

func (s *SessionSuite) TestDraftForOtherEventIgnored() {
	s.Require().NoError(s.drafts.SaveDraft(s.ctx, "sess-1", &model.GuestGroupDraft{
		EventID:     "evt-2",
		Responsible: &model.DraftResponsible{Name: "Maria", Phone: "5555-0100-1"},
	}))

	session := s.start("sess-1")
	s.IsType(CollectingResponsible{}, session.Step())
}

func (s *SessionSuite) TestSuccessDeletesDraft() {
	session := s.start("sess-1")
	s.toCompanion(session)

	step := s.dispatch(session, ChooseCompanion{Kind: model.CompanionSelf})

	s.Require().IsType(Succeeded{}, step)
	s.Len(step.(Succeeded).Guests, 2)
	s.Equal(1, s.submitter.callCount())
	_, err := s.drafts.GetDraft(s.ctx, "sess-1")
	s.ErrorIs(err, model.ErrDraftNotFound)
}

func (s *SessionSuite) TestFailureKeepsDraftAndDoesNotRetry() {
	s.submitter.err = errors.New("connection refused")
	session := s.start("sess-1")
	s.toCompanion(session)

	step, err := session.Dispatch(s.ctx, ChooseCompanion{Kind: model.CompanionSelf})

	var subErr *model.SubmissionError
	s.Require().ErrorAs(err, &subErr)
	s.Require().IsType(Failed{}, step)
	s.Equal(1, s.submitter.callCount())

	draft, err := s.drafts.GetDraft(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(model.CompanionSelf, draft.Companion.Kind)

	// User-initiated retry
	s.submitter.mu.Lock()
	s.submitter.err = nil
	s.submitter.mu.Unlock()
	step = s.dispatch(session, Retry{})
	s.IsType(Succeeded{}, step)
	s.Equal(2, s.submitter.callCount())
}

func (s *SessionSuite) TestDispatchWhileSubmitting() {
	s.submitter.release = make(chan struct{})
	session := s.start("sess-1")
	s.toCompanion(session)

	done := make(chan Step)
	go func() {
		step, _ := session.Dispatch(s.ctx, ChooseCompanion{Kind: model.CompanionSelf})
		done <- step
	}()

	s.Eventually(func() bool { return s.submitter.callCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err := session.Dispatch(s.ctx, GoBack{})
	s.ErrorIs(err, model.ErrSubmissionInProgress)
	s.ErrorIs(session.Abandon(s.ctx), model.ErrSubmissionInProgress)

	close(s.submitter.release)
	s.IsType(Succeeded{}, <-done)
}

func (s *SessionSuite) TestCancelledSubmitFails() {
	s.submitter.release = make(chan struct{})
	session := s.start("sess-1")
	s.toCompanion(session)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error)
	go func() {
		_, err := session.Dispatch(ctx, ChooseCompanion{Kind: model.CompanionSelf})
		done <- err
	}()

	s.Eventually(func() bool { return s.submitter.callCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	err := <-done
	s.ErrorIs(err, context.Canceled)
	s.IsType(Failed{}, session.Step())

	_, err = s.drafts.GetDraft(s.ctx, "sess-1")
	s.NoError(err)
}

func (s *SessionSuite) TestAbandon() {
	session := s.start("sess-1")
	s.toCompanion(session)

	s.Require().NoError(session.Abandon(s.ctx))

	s.IsType(CollectingResponsible{}, session.Step())
	_, err := s.drafts.GetDraft(s.ctx, "sess-1")
	s.ErrorIs(err, model.ErrDraftNotFound)
}

func (s *SessionSuite) TestValidationErrorKeepsStep() {
	session := s.start("sess-1")
	step, err := session.Dispatch(s.ctx, SubmitResponsible{Name: ""})

	var verr *model.ValidationError
	s.ErrorAs(err, &verr)
	s.IsType(CollectingResponsible{}, step)
	s.IsType(CollectingResponsible{}, session.Step())
}

// unwritableDrafts fails every save
type unwritableDrafts struct {
	*memory.Storage
}

func (unwritableDrafts) SaveDraft(context.Context, model.DraftSessionID, *model.GuestGroupDraft) error {
	return errors.New("cache unavailable")
}

func (s *SessionSuite) TestDraftSaveFailureIsLoggedNotReturned() {
	logger, logs := testutil.CaptureLogger()
	session, err := StartSession(s.ctx, s.flow, "sess-1", unwritableDrafts{s.drafts}, s.submitter, s.clock, logger)
	s.Require().NoError(err)

	step, err := session.Dispatch(s.ctx, SubmitResponsible{Name: "Maria", Phone: "5555-0100-1", SelfAttending: boolPtr(true)})
	s.Require().NoError(err)
	s.IsType(CollectingChildren{}, step)

	entry := logs.Find("failed to save draft")
	s.Require().NotNil(entry)
	s.Equal("sess-1", entry["session_id"])
	s.Equal("cache unavailable", entry["error"])
}
