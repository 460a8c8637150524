package model

import (
	"strings"
	"time"
)

// GuestID uniquely identifies a guest record
type GuestID string

// GuestCategory classifies a guest for eligibility and display
type GuestCategory string

const (
	CategoryPayingAdult       GuestCategory = "paying_adult"
	CategoryPayingChild       GuestCategory = "paying_child"
	CategoryInfantUnderOne    GuestCategory = "infant_under_one"
	CategoryNanny             GuestCategory = "nanny"
	CategoryDirectFamilyHost  GuestCategory = "direct_family_host"
	CategoryAtypicalCompanion GuestCategory = "atypical_companion"
)

// ValidGuestCategories returns every known category
func ValidGuestCategories() []GuestCategory {
	return []GuestCategory{
		CategoryPayingAdult,
		CategoryPayingChild,
		CategoryInfantUnderOne,
		CategoryNanny,
		CategoryDirectFamilyHost,
		CategoryAtypicalCompanion,
	}
}

// Valid reports whether c is a known category
func (c GuestCategory) Valid() bool {
	for _, known := range ValidGuestCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// IsChild reports whether the category denotes a child (date of birth required)
func (c GuestCategory) IsChild() bool {
	return c == CategoryPayingChild || c == CategoryInfantUnderOne
}

// AttendanceState is the day-of attendance status of a guest
type AttendanceState string

const (
	AttendanceAwaiting AttendanceState = "awaiting" // Not yet arrived
	AttendancePresent  AttendanceState = "present"  // Checked in
	AttendanceDeparted AttendanceState = "departed" // Checked out (terminal)
)

// rank orders attendance states along the only permitted direction of travel
func (s AttendanceState) rank() int {
	switch s {
	case AttendanceAwaiting:
		return 0
	case AttendancePresent:
		return 1
	case AttendanceDeparted:
		return 2
	default:
		return -1
	}
}

// Guest is one attendee of one event
type Guest struct {
	ID          GuestID
	EventID     EventID
	DisplayName string
	Category    GuestCategory
	Phone       string
	DateOfBirth *Date
	IsAtypical  bool

	// ResponsibleID is a lookup-only reference to the adult accountable for this guest.
	// Set only on dependents; the referenced guest may have been removed since.
	ResponsibleID *GuestID

	AttendanceState  AttendanceState
	CheckInAt        *time.Time
	CheckOutAt       *time.Time
	RegisteredOnSite bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDependent reports whether the guest points at a responsible guest
func (g *Guest) IsDependent() bool {
	return g.ResponsibleID != nil && *g.ResponsibleID != ""
}

// Clone returns a deep copy of the guest
func (g *Guest) Clone() *Guest {
	c := *g
	if g.DateOfBirth != nil {
		dob := *g.DateOfBirth
		c.DateOfBirth = &dob
	}
	if g.ResponsibleID != nil {
		rid := *g.ResponsibleID
		c.ResponsibleID = &rid
	}
	if g.CheckInAt != nil {
		t := *g.CheckInAt
		c.CheckInAt = &t
	}
	if g.CheckOutAt != nil {
		t := *g.CheckOutAt
		c.CheckOutAt = &t
	}
	return &c
}

// ApplyAttendance moves the guest forward along awaiting -> present -> departed.
// Backward moves, check-out without check-in, and timestamps that run backwards are rejected.
func (g *Guest) ApplyAttendance(u AttendanceUpdate) error {
	if u.State.rank() <= g.AttendanceState.rank() {
		return ErrInvalidTransition
	}

	checkIn := g.CheckInAt
	if u.CheckInAt != nil {
		if g.CheckInAt != nil {
			return ErrInvalidTransition
		}
		checkIn = u.CheckInAt
	}

	checkOut := g.CheckOutAt
	if u.CheckOutAt != nil {
		if g.CheckOutAt != nil || checkIn == nil {
			return ErrInvalidTransition
		}
		if u.CheckOutAt.Before(*checkIn) {
			return ErrInvalidTransition
		}
		checkOut = u.CheckOutAt
	}

	switch u.State {
	case AttendancePresent:
		if checkIn == nil {
			return ErrInvalidTransition
		}
	case AttendanceDeparted:
		if checkIn == nil || checkOut == nil {
			return ErrInvalidTransition
		}
	default:
		return ErrInvalidTransition
	}

	g.AttendanceState = u.State
	g.CheckInAt = checkIn
	g.CheckOutAt = checkOut
	if u.At.After(g.UpdatedAt) {
		g.UpdatedAt = u.At
	}
	return nil
}

// SameName compares display names the way operators read them
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// GuestNode is a root guest with its direct dependents
type GuestNode struct {
	Guest      *Guest
	Dependents []*Guest
}

// ResponsibleContact is the adult who registered a guest group
type ResponsibleContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// GuestRecord is a guest-creation payload, before an id is assigned
type GuestRecord struct {
	DisplayName string        `json:"display_name"`
	Category    GuestCategory `json:"category"`
	Phone       string        `json:"phone,omitempty"`
	DateOfBirth *Date         `json:"date_of_birth,omitempty"`
	IsAtypical  bool          `json:"is_atypical,omitempty"`

	// ResponsibleIndex points at another record of the same submission (positional reference)
	ResponsibleIndex *int `json:"responsible_index,omitempty"`
	// ResponsibleID points at an already persisted guest (on-site registration)
	ResponsibleID *GuestID `json:"responsible_id,omitempty"`
}

// GroupSubmission is the payload produced by the confirmation flow
type GroupSubmission struct {
	ResponsibleContact ResponsibleContact `json:"responsible_contact"`
	Guests             []GuestRecord      `json:"guests"`
}
