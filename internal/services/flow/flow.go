// Package flow implements the guest group confirmation conversation as a pure reducer
// over an explicit set of steps, plus a Session that persists drafts and performs the
// final submit.
package flow

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/eligibility"
)

// Phone numbers are accepted with common punctuation and must carry this many digits
const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

// Flow evaluates steps for one event. It is immutable and safe to share.
type Flow struct {
	policy    *eligibility.Policy
	eventID   model.EventID
	eventDate model.Date
}

// New creates a Flow for the event held on eventDate
func New(policy *eligibility.Policy, eventID model.EventID, eventDate model.Date) *Flow {
	return &Flow{
		policy:    policy,
		eventID:   eventID,
		eventDate: eventDate,
	}
}

// EventID returns the event the flow confirms attendance for
func (f *Flow) EventID() model.EventID {
	return f.eventID
}

// NewDraft returns an empty draft for the flow's event
func (f *Flow) NewDraft() *model.GuestGroupDraft {
	return &model.GuestGroupDraft{EventID: f.eventID}
}

// InitialStep derives the step to resume at from the data in a draft.
// Resuming never submits: a draft with a companion already chosen resumes at the
// companion step with the choice kept for pre-filling.
func (f *Flow) InitialStep(draft *model.GuestGroupDraft) Step {
	if draft == nil {
		draft = f.NewDraft()
	} else {
		draft = draft.Clone()
	}

	if draft.Responsible == nil {
		return CollectingResponsible{draft: draft}
	}
	if len(draft.Children) == 0 || f.validateChildren(draft.Children) != nil {
		return CollectingChildren{draft: draft}
	}

	requiring, err := f.requiringCompanion(draft.Children)
	if err != nil {
		return CollectingChildren{draft: draft}
	}
	if len(requiring) > 0 {
		return CollectingCompanion{draft: draft, RequiringCompanion: requiring}
	}
	return FinalConfirmation{draft: draft}
}

// Apply returns the step that follows step on action. Invalid input yields a
// *model.ValidationError and the unchanged step; an action that does not belong to the
// current step yields model.ErrInvalidAction.
func (f *Flow) Apply(step Step, action Action) (Step, error) {
	if _, done := step.(Succeeded); !done && step.Draft() == nil {
		// Steps are only meaningful when produced by InitialStep or Apply
		return step, model.ErrInvalidAction
	}

	switch s := step.(type) {
	case CollectingResponsible:
		return f.applyCollectingResponsible(s, action)
	case CollectingChildren:
		return f.applyCollectingChildren(s, action)
	case CollectingCompanion:
		return f.applyCollectingCompanion(s, action)
	case FinalConfirmation:
		return f.applyFinalConfirmation(s, action)
	case Submitting:
		return f.applySubmitting(s, action)
	case Failed:
		return f.applyFailed(s, action)
	case Succeeded:
		return step, model.ErrFlowComplete
	default:
		return step, model.ErrInvalidAction
	}
}

func (f *Flow) applyCollectingResponsible(s CollectingResponsible, action Action) (Step, error) {
	switch a := action.(type) {
	case SubmitResponsible:
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return s, model.NewValidationError("name", "name is required")
		}
		phone := strings.TrimSpace(a.Phone)
		if err := validatePhone("phone", phone); err != nil {
			return s, err
		}
		if a.SelfAttending == nil {
			return s, model.NewValidationError("self_attending", "say whether you will attend")
		}

		draft := s.draft.Clone()
		draft.Responsible = &model.DraftResponsible{
			Name:          name,
			Phone:         phone,
			SelfAttending: *a.SelfAttending,
		}
		return CollectingChildren{draft: draft}, nil
	case GoBack:
		return s, model.ErrNoPreviousStep
	default:
		return s, model.ErrInvalidAction
	}
}

func (f *Flow) applyCollectingChildren(s CollectingChildren, action Action) (Step, error) {
	switch a := action.(type) {
	case SubmitChildren:
		children := make([]model.ChildEntry, len(a.Children))
		for i, c := range a.Children {
			children[i] = c
			children[i].Name = strings.TrimSpace(c.Name)
		}
		if err := f.validateChildren(children); err != nil {
			return s, err
		}

		requiring, err := f.requiringCompanion(children)
		if err != nil {
			return s, err
		}

		draft := s.draft.Clone()
		draft.Children = children
		if len(requiring) > 0 {
			draft.AttendanceAnswer = nil
			return CollectingCompanion{draft: draft, RequiringCompanion: requiring}, nil
		}
		draft.Companion = nil
		return FinalConfirmation{draft: draft}, nil
	case GoBack:
		return CollectingResponsible{draft: s.draft.Clone()}, nil
	default:
		return s, model.ErrInvalidAction
	}
}

func (f *Flow) applyCollectingCompanion(s CollectingCompanion, action Action) (Step, error) {
	switch a := action.(type) {
	case ChooseCompanion:
		choice, err := validateCompanion(a)
		if err != nil {
			return s, err
		}

		draft := s.draft.Clone()
		draft.Companion = choice
		if choice.Kind == model.CompanionSelf {
			draft.Responsible.SelfAttending = true
		}
		return f.submit(draft, s)
	case GoBack:
		return CollectingChildren{draft: s.draft.Clone()}, nil
	default:
		return s, model.ErrInvalidAction
	}
}

func (f *Flow) applyFinalConfirmation(s FinalConfirmation, action Action) (Step, error) {
	switch a := action.(type) {
	case ConfirmAttendance:
		if a.Attending == nil {
			return s, model.NewValidationError("attending", "answer yes or no")
		}

		draft := s.draft.Clone()
		attending := *a.Attending
		draft.AttendanceAnswer = &attending
		draft.Responsible.SelfAttending = attending
		return f.submit(draft, s)
	case GoBack:
		return CollectingChildren{draft: s.draft.Clone()}, nil
	default:
		return s, model.ErrInvalidAction
	}
}

func (f *Flow) applySubmitting(s Submitting, action Action) (Step, error) {
	switch a := action.(type) {
	case submissionSucceeded:
		return Succeeded{Guests: a.guests}, nil
	case submissionFailed:
		return Failed{
			draft:      s.draft,
			Submission: s.Submission,
			Err:        a.err,
		}, nil
	default:
		return s, model.ErrSubmissionInProgress
	}
}

func (f *Flow) applyFailed(s Failed, action Action) (Step, error) {
	switch action.(type) {
	case Retry:
		return Submitting{draft: s.draft, Submission: s.Submission}, nil
	case GoBack:
		return f.InitialStep(s.draft), nil
	default:
		return s, model.ErrInvalidAction
	}
}

// submit assembles the payload and enters Submitting
func (f *Flow) submit(draft *model.GuestGroupDraft, from Step) (Step, error) {
	submission, err := AssembleSubmission(draft)
	if err != nil {
		return from, err
	}
	return Submitting{draft: draft, Submission: submission}, nil
}

func (f *Flow) validateChildren(children []model.ChildEntry) error {
	if len(children) == 0 {
		return model.NewValidationError("children", "add at least one child")
	}
	for i, c := range children {
		if strings.TrimSpace(c.Name) == "" {
			return model.NewValidationError(childField(i, "name"), "name is required")
		}
		if c.DateOfBirth == nil || c.DateOfBirth.IsZero() {
			return model.NewValidationError(childField(i, "date_of_birth"), "date of birth is required")
		}
		if c.DateOfBirth.After(f.eventDate) {
			return model.NewValidationError(childField(i, "date_of_birth"), "date of birth is after the event")
		}
	}
	return nil
}

func (f *Flow) requiringCompanion(children []model.ChildEntry) ([]int, error) {
	assessments, err := f.policy.Evaluate(children, f.eventDate)
	if err != nil {
		return nil, err
	}
	return eligibility.AnyRequiresCompanion(assessments), nil
}

func validateCompanion(a ChooseCompanion) (*model.CompanionChoice, error) {
	switch a.Kind {
	case model.CompanionSelf:
		return &model.CompanionChoice{Kind: model.CompanionSelf}, nil
	case model.CompanionOther:
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return nil, model.NewValidationError("companion.name", "companion name is required")
		}
		phone := strings.TrimSpace(a.Phone)
		if err := validatePhone("companion.phone", phone); err != nil {
			return nil, err
		}
		return &model.CompanionChoice{
			Kind:    model.CompanionOther,
			Name:    name,
			Phone:   phone,
			IsNanny: a.IsNanny,
		}, nil
	default:
		return nil, model.NewValidationError("companion.kind", "choose %q or %q", model.CompanionSelf, model.CompanionOther)
	}
}

func validatePhone(field, phone string) error {
	if phone == "" {
		return model.NewValidationError(field, "phone is required")
	}
	digits := 0
	for i, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return model.NewValidationError(field, "phone contains %q", r)
		}
	}
	if digits < minPhoneDigits || digits > maxPhoneDigits {
		return model.NewValidationError(field, "phone must have between %d and %d digits", minPhoneDigits, maxPhoneDigits)
	}
	return nil
}

func childField(i int, field string) string {
	return "children[" + strconv.Itoa(i) + "]." + field
}
