package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Operator errors
	ErrOperatorNotFound = errors.New("operator not found")

	// Event errors
	ErrEventNotFound = errors.New("event not found")

	// Guest errors
	ErrGuestNotFound       = errors.New("guest not found")
	ErrGroupNotFound       = errors.New("cannot locate group")
	ErrResponsibleNotFound = errors.New("responsible guest not found")
	ErrCrossEventReference = errors.New("responsible guest belongs to another event")
	ErrSelfReference       = errors.New("guest cannot be responsible for itself")
	ErrHierarchyTooDeep    = errors.New("responsible guest is itself a dependent")
	ErrChildResponsible    = errors.New("a child cannot be responsible for another guest")

	// Attendance errors
	ErrNotCheckedIn       = errors.New("guest has not checked in")
	ErrInvalidTransition  = errors.New("invalid attendance transition")
	ErrConcurrentUpdate   = errors.New("guest list changed concurrently, try again")
	ErrMissingDateOfBirth = errors.New("date of birth is required to evaluate eligibility")

	// Confirmation flow errors
	ErrDraftNotFound        = errors.New("draft not found")
	ErrInvalidAction        = errors.New("action not allowed in the current step")
	ErrNoPreviousStep       = errors.New("no previous step")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrFlowComplete         = errors.New("confirmation already completed")
)

// ValidationError reports a single invalid input field.
// The step or request that produced it does not advance.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for field
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// SubmissionError wraps a failure of the final submit call.
// The draft is retained so the user can retry.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return "submission failed: " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
