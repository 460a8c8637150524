package flow

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/eligibility"
)

type FlowSuite struct {
	suite.Suite
	flow *Flow
}

func TestFlowSuite(t *testing.T) {
	suite.Run(t, new(FlowSuite))
}

func (s *FlowSuite) SetupTest() {
	s.flow = New(eligibility.New(eligibility.DefaultConfig()), "evt-1", model.MustParseDate("2025-06-14"))
}

func boolPtr(b bool) *bool {
	return &b
}

func childEntry(name, dob string, atypical bool) model.ChildEntry {
	d := model.MustParseDate(dob)
	return model.ChildEntry{Name: name, DateOfBirth: &d, IsAtypical: atypical}
}

// apply applies an action and requires it to succeed
func (s *FlowSuite) apply(step Step, action Action) Step {
	next, err := s.flow.Apply(step, action)
	s.Require().NoError(err)
	return next
}

func (s *FlowSuite) atChildren() Step {
	step := s.flow.InitialStep(nil)
	return s.apply(step, SubmitResponsible{Name: "Maria", Phone: "+55 11 5555-0100", SelfAttending: boolPtr(true)})
}

// Responsible step

func (s *FlowSuite) TestStartsCollectingResponsible() {
	step := s.flow.InitialStep(nil)
	s.IsType(CollectingResponsible{}, step)
	s.Equal(model.EventID("evt-1"), step.Draft().EventID)
}

func (s *FlowSuite) TestSubmitResponsibleAdvances() {
	step := s.atChildren()

	s.Require().IsType(CollectingChildren{}, step)
	s.Equal("Maria", step.Draft().Responsible.Name)
	s.True(step.Draft().Responsible.SelfAttending)
}

func (s *FlowSuite) TestSubmitResponsibleValidation() {
	start := s.flow.InitialStep(nil)
	cases := []struct {
		action SubmitResponsible
		field  string
	}{
		{SubmitResponsible{Name: " ", Phone: "5555-0100-1", SelfAttending: boolPtr(true)}, "name"},
		{SubmitResponsible{Name: "Maria", Phone: "", SelfAttending: boolPtr(true)}, "phone"},
		{SubmitResponsible{Name: "Maria", Phone: "call me", SelfAttending: boolPtr(true)}, "phone"},
		{SubmitResponsible{Name: "Maria", Phone: "123", SelfAttending: boolPtr(true)}, "phone"},
		{SubmitResponsible{Name: "Maria", Phone: "5555-0100-1"}, "self_attending"},
	}

	for _, tc := range cases {
		next, err := s.flow.Apply(start, tc.action)
		var verr *model.ValidationError
		s.Require().ErrorAs(err, &verr)
		s.Equal(tc.field, verr.Field)
		s.Equal(start, next)
	}
}

func (s *FlowSuite) TestGoBackFromFirstStep() {
	_, err := s.flow.Apply(s.flow.InitialStep(nil), GoBack{})
	s.ErrorIs(err, model.ErrNoPreviousStep)
}

func (s *FlowSuite) TestWrongActionForStep() {
	_, err := s.flow.Apply(s.flow.InitialStep(nil), ConfirmAttendance{Attending: boolPtr(true)})
	s.ErrorIs(err, model.ErrInvalidAction)
}

// Children step

func (s *FlowSuite) TestAllClearGoesToFinalConfirmation() {
	step := s.apply(s.atChildren(), SubmitChildren{Children: []model.ChildEntry{
		childEntry("Ana", "2015-01-01", false),
		childEntry("Bia", "2019-06-14", false),
	}})
	s.IsType(FinalConfirmation{}, step)
}

func (s *FlowSuite) TestAnyRequiringGoesToCompanion() {
	step := s.apply(s.atChildren(), SubmitChildren{Children: []model.ChildEntry{
		childEntry("Ana", "2015-01-01", false),
		childEntry("Bia", "2019-06-15", false),
	}})
	s.Require().IsType(CollectingCompanion{}, step)
	s.Equal([]int{1}, step.(CollectingCompanion).RequiringCompanion)
}

func (s *FlowSuite) TestAtypicalGoesToCompanion() {
	step := s.apply(s.atChildren(), SubmitChildren{Children: []model.ChildEntry{
		childEntry("Ana", "2010-01-01", true),
	}})
	s.IsType(CollectingCompanion{}, step)
}

func (s *FlowSuite) TestChildrenValidation() {
	start := s.atChildren()
	cases := []struct {
		children []model.ChildEntry
		field    string
	}{
		{nil, "children"},
		{[]model.ChildEntry{{Name: "", DateOfBirth: childEntry("", "2015-01-01", false).DateOfBirth}}, "children[0].name"},
		{[]model.ChildEntry{childEntry("Ana", "2015-01-01", false), {Name: "Bia"}}, "children[1].date_of_birth"},
		{[]model.ChildEntry{childEntry("Ana", "2026-01-01", false)}, "children[0].date_of_birth"},
	}

	for _, tc := range cases {
		next, err := s.flow.Apply(start, SubmitChildren{Children: tc.children})
		var verr *model.ValidationError
		s.Require().ErrorAs(err, &verr)
		s.Equal(tc.field, verr.Field)
		s.Equal(start, next)
	}
}

func (s *FlowSuite) TestGoBackKeepsUpstreamData() {
	children := s.apply(s.atChildren(), SubmitChildren{Children: []model.ChildEntry{
		childEntry("Ana", "2021-01-01", false),
	}})
	s.Require().IsType(CollectingCompanion{}, children)

	back := s.apply(children, GoBack{})
	s.Require().IsType(CollectingChildren{}, back)
	s.Len(back.Draft().Children, 1)
	s.Equal("Maria", back.Draft().Responsible.Name)

	first := s.apply(back, GoBack{})
	s.Require().IsType(CollectingResponsible{}, first)
	s.Len(first.Draft().Children, 1)
}

func (s *FlowSuite) TestChangingChildrenClearsStaleCompanion() {
	companion := s.apply(s.atChildren(), SubmitChildren{Children: []model.ChildEntry{
		childEntry("Ana", "2021-01-01", false),
	}})
	submitting := s.apply(companion, ChooseCompanion{Kind: model.CompanionSelf})
	s.Require().IsType(Submitting{}, submitting)

	// Back from a failed submit, then replace the child with one who needs no companion
	failed := s.apply(submitting, submissionFailed{err: &model.SubmissionError{Err: model.ErrConcurrentUpdate}})
	back := s.apply(failed, GoBack{})
	s.Require().IsType(CollectingCompanion{}, back)
	s.NotNil(back.Draft().Companion)

	children := s.apply(back, GoBack{})
	final := s.apply(children, SubmitChildren{Children: []model.ChildEntry{childEntry("Ana", "2010-01-01", false)}})
	s.Require().IsType(FinalConfirmation{}, final)
	s.Nil(final.Draft().Companion)
}

// Companion step

func (s *FlowSuite) TestChooseSelfCompanion() {
	companion := s.apply(s.atChildren(), SubmitChildren{Children: []model.ChildEntry{
		childEntry("Ana", "2021-01-01", false),
	}})

	step := s.apply(companion, ChooseCompanion{Kind: model.CompanionSelf})

	s.Require().IsType(Submitting{}, step)
	guests := step.(Submitting).Submission.Guests
	s.Require().Len(guests, 2)
	s.Equal(model.CategoryPayingAdult, guests[1].Category)
}

func (s *FlowSuite) TestChooseOtherCompanionValidation() {
	companion := s.apply(s.atChildren(), SubmitChildren{Children: []model.ChildEntry{
		childEntry("Ana", "2021-01-01", false),
	}})

	_, err := s.flow.Apply(companion, ChooseCompanion{Kind: model.CompanionOther, Phone: "5555-0199-2"})
	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("companion.name", verr.Field)

	_, err = s.flow.Apply(companion, ChooseCompanion{Kind: "grandparent"})
	s.Require().ErrorAs(err, &verr)
	s.Equal("companion.kind", verr.Field)
}

// Final confirmation step

func (s *FlowSuite) TestConfirmAttendanceRequiresAnswer() {
	final := s.apply(s.atChildren(), SubmitChildren{Children: []model.ChildEntry{
		childEntry("Ana", "2010-01-01", false),
	}})

	_, err := s.flow.Apply(final, ConfirmAttendance{})
	var verr *model.ValidationError
	s.ErrorAs(err, &verr)
}

func (s *FlowSuite) TestConfirmAttendanceNo() {
	final := s.apply(s.atChildren(), SubmitChildren{Children: []model.ChildEntry{
		childEntry("Ana", "2010-01-01", false),
	}})

	step := s.apply(final, ConfirmAttendance{Attending: boolPtr(false)})

	s.Require().IsType(Submitting{}, step)
	guests := step.(Submitting).Submission.Guests
	s.Require().Len(guests, 1)
	s.Nil(guests[0].ResponsibleIndex)
}

// Submitting and after

func (s *FlowSuite) submitting() Step {
	final := s.apply(s.atChildren(), SubmitChildren{Children: []model.ChildEntry{
		childEntry("Ana", "2010-01-01", false),
	}})
	return s.apply(final, ConfirmAttendance{Attending: boolPtr(true)})
}

func (s *FlowSuite) TestSubmittingRejectsUserActions() {
	step := s.submitting()
	_, err := s.flow.Apply(step, GoBack{})
	s.ErrorIs(err, model.ErrSubmissionInProgress)
}

func (s *FlowSuite) TestSubmissionSucceeded() {
	step := s.apply(s.submitting(), submissionSucceeded{guests: []*model.Guest{{ID: "g-1"}}})
	s.Require().IsType(Succeeded{}, step)
	s.Nil(step.Draft())

	_, err := s.flow.Apply(step, Retry{})
	s.ErrorIs(err, model.ErrFlowComplete)
}

func (s *FlowSuite) TestFailedRetainsDraftAndRetries() {
	submitting := s.submitting()
	failed := s.apply(submitting, submissionFailed{err: &model.SubmissionError{Err: model.ErrConcurrentUpdate}})

	s.Require().IsType(Failed{}, failed)
	s.Equal(submitting.Draft(), failed.Draft())
	s.ErrorIs(failed.(Failed).Err, model.ErrConcurrentUpdate)

	retry := s.apply(failed, Retry{})
	s.Require().IsType(Submitting{}, retry)
	s.Equal(submitting.(Submitting).Submission, retry.(Submitting).Submission)
}

func (s *FlowSuite) TestRetryOnlyFromFailed() {
	_, err := s.flow.Apply(s.atChildren(), Retry{})
	s.ErrorIs(err, model.ErrInvalidAction)
}

func (s *FlowSuite) TestZeroValueStepRejected() {
	_, err := s.flow.Apply(CollectingChildren{}, GoBack{})
	s.ErrorIs(err, model.ErrInvalidAction)
}

// InitialStep tests

func (s *FlowSuite) TestInitialStepFromDraft() {
	responsible := &model.DraftResponsible{Name: "Maria", Phone: "5555-0100-1", SelfAttending: true}
	younger := childEntry("Ana", "2021-01-01", false)
	older := childEntry("Bia", "2010-01-01", false)

	s.IsType(CollectingResponsible{}, s.flow.InitialStep(&model.GuestGroupDraft{EventID: "evt-1"}))
	s.IsType(CollectingChildren{}, s.flow.InitialStep(&model.GuestGroupDraft{EventID: "evt-1", Responsible: responsible}))
	s.IsType(CollectingCompanion{}, s.flow.InitialStep(&model.GuestGroupDraft{
		EventID: "evt-1", Responsible: responsible, Children: []model.ChildEntry{younger},
	}))
	s.IsType(FinalConfirmation{}, s.flow.InitialStep(&model.GuestGroupDraft{
		EventID: "evt-1", Responsible: responsible, Children: []model.ChildEntry{older},
	}))
}

func (s *FlowSuite) TestInitialStepNeverSubmits() {
	draft := &model.GuestGroupDraft{
		EventID:     "evt-1",
		Responsible: &model.DraftResponsible{Name: "Maria", Phone: "5555-0100-1", SelfAttending: true},
		Children:    []model.ChildEntry{childEntry("Ana", "2021-01-01", false)},
		Companion:   &model.CompanionChoice{Kind: model.CompanionSelf},
	}

	step := s.flow.InitialStep(draft)

	s.Require().IsType(CollectingCompanion{}, step)
	s.Equal(model.CompanionSelf, step.Draft().Companion.Kind)
}

func (s *FlowSuite) TestInitialStepWithInvalidChildren() {
	draft := &model.GuestGroupDraft{
		EventID:     "evt-1",
		Responsible: &model.DraftResponsible{Name: "Maria", Phone: "5555-0100-1"},
		Children:    []model.ChildEntry{{Name: "Ana"}},
	}
	s.IsType(CollectingChildren{}, s.flow.InitialStep(draft))
}

func (s *FlowSuite) TestInitialStepMatchesReachedStep() {
	reached := s.apply(s.atChildren(), SubmitChildren{Children: []model.ChildEntry{
		childEntry("Ana", "2019-06-15", false),
	}})
	resumed := s.flow.InitialStep(reached.Draft())
	s.Equal(reached, resumed)
}
