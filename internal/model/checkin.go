package model

import "time"

// CheckInOutcome reports what a check-in or check-out did to one guest
type CheckInOutcome string

const (
	OutcomeCheckedIn         CheckInOutcome = "checkin_ok"
	OutcomeAlreadyCheckedIn  CheckInOutcome = "already_checked_in"
	OutcomeCheckedOut        CheckInOutcome = "checkout_ok"
	OutcomeAlreadyCheckedOut CheckInOutcome = "already_checked_out"
	OutcomeNotCheckedIn      CheckInOutcome = "not_checked_in" // Check-out refused, guest never arrived
)

// Applied reports whether the outcome changed the guest's state
func (o CheckInOutcome) Applied() bool {
	return o == OutcomeCheckedIn || o == OutcomeCheckedOut
}

// AttendanceUpdate is a single forward attendance transition to commit
type AttendanceUpdate struct {
	GuestID    GuestID
	State      AttendanceState
	CheckInAt  *time.Time
	CheckOutAt *time.Time
	At         time.Time
}

// MemberResult is the per-guest result of a group operation
type MemberResult struct {
	GuestID       GuestID
	DisplayName   string
	IsResponsible bool
	Outcome       CheckInOutcome
	State         AttendanceState // State after the operation
}

// GroupResult is the result of a group check-in or check-out
type GroupResult struct {
	EventID       EventID
	ResponsibleID GuestID
	Members       []MemberResult
}

// AppliedCount returns the number of members whose state changed
func (r *GroupResult) AppliedCount() int {
	count := 0
	for _, m := range r.Members {
		if m.Outcome.Applied() {
			count++
		}
	}
	return count
}
