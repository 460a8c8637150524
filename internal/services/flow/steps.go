package flow

import (
	"github.com/mcoot/guestdesk/internal/model"
)

// Step is one state of the confirmation flow. The set of steps is closed: only the
// types in this file implement it, each carrying exactly the data its state needs.
type Step interface {
	// Name is the stable snake_case name of the step
	Name() string
	// Draft returns the data collected so far, or nil once the flow has succeeded
	Draft() *model.GuestGroupDraft

	isStep()
}

// CollectingResponsible asks for the responsible adult's name, phone and attendance intent
type CollectingResponsible struct {
	draft *model.GuestGroupDraft
}

// CollectingChildren asks for the ordered list of children
type CollectingChildren struct {
	draft *model.GuestGroupDraft
}

// CollectingCompanion asks who accompanies the children. RequiringCompanion holds the
// indices of the children that made a companion mandatory.
type CollectingCompanion struct {
	draft              *model.GuestGroupDraft
	RequiringCompanion []int
}

// FinalConfirmation asks whether the responsible adult also attends
type FinalConfirmation struct {
	draft *model.GuestGroupDraft
}

// Submitting holds the assembled payload while it is sent for persistence
type Submitting struct {
	draft      *model.GuestGroupDraft
	Submission model.GroupSubmission
}

// Succeeded is terminal: the group was persisted
type Succeeded struct {
	Guests []*model.Guest
}

// Failed holds the submit error. The draft and payload are retained for a retry.
type Failed struct {
	draft      *model.GuestGroupDraft
	Submission model.GroupSubmission
	Err        error
}

func (CollectingResponsible) Name() string { return "collecting_responsible" }
func (CollectingChildren) Name() string    { return "collecting_children" }
func (CollectingCompanion) Name() string   { return "collecting_companion" }
func (FinalConfirmation) Name() string     { return "final_confirmation" }
func (Submitting) Name() string            { return "submitting" }
func (Succeeded) Name() string             { return "succeeded" }
func (Failed) Name() string                { return "failed" }

func (s CollectingResponsible) Draft() *model.GuestGroupDraft { return s.draft }
func (s CollectingChildren) Draft() *model.GuestGroupDraft    { return s.draft }
func (s CollectingCompanion) Draft() *model.GuestGroupDraft   { return s.draft }
func (s FinalConfirmation) Draft() *model.GuestGroupDraft     { return s.draft }
func (s Submitting) Draft() *model.GuestGroupDraft            { return s.draft }
func (Succeeded) Draft() *model.GuestGroupDraft               { return nil }
func (s Failed) Draft() *model.GuestGroupDraft                { return s.draft }

func (CollectingResponsible) isStep() {}
func (CollectingChildren) isStep()    {}
func (CollectingCompanion) isStep()   {}
func (FinalConfirmation) isStep()     {}
func (Submitting) isStep()            {}
func (Succeeded) isStep()             {}
func (Failed) isStep()                {}

// Action is an input to the flow
type Action interface {
	isAction()
}

// SubmitResponsible completes the responsible adult step.
// SelfAttending must be answered explicitly.
type SubmitResponsible struct {
	Name          string
	Phone         string
	SelfAttending *bool
}

// SubmitChildren completes the children step with the full ordered list
type SubmitChildren struct {
	Children []model.ChildEntry
}

// ChooseCompanion resolves the companion
type ChooseCompanion struct {
	Kind    model.CompanionKind
	Name    string
	Phone   string
	IsNanny bool
}

// ConfirmAttendance answers whether the responsible adult attends
type ConfirmAttendance struct {
	Attending *bool
}

// GoBack returns to the previous collecting step, keeping everything collected
type GoBack struct{}

// Retry resubmits the retained payload after a failure
type Retry struct{}

// submissionSucceeded and submissionFailed are produced by the Session when the submit
// call resolves; callers cannot forge them
type submissionSucceeded struct {
	guests []*model.Guest
}

type submissionFailed struct {
	err error
}

func (SubmitResponsible) isAction()   {}
func (SubmitChildren) isAction()      {}
func (ChooseCompanion) isAction()     {}
func (ConfirmAttendance) isAction()   {}
func (GoBack) isAction()              {}
func (Retry) isAction()               {}
func (submissionSucceeded) isAction() {}
func (submissionFailed) isAction()    {}
