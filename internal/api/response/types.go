package response

import (
	"time"

	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/auth"
	"github.com/mcoot/guestdesk/internal/services/eligibility"
)

// Operator represents an operator in API responses
type Operator struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// OperatorFromModel converts a model.Operator to a response Operator
func OperatorFromModel(o *model.Operator) Operator {
	return Operator{
		ID:          string(o.ID),
		DisplayName: o.DisplayName,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Operator     Operator  `json:"operator"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Operator:     OperatorFromModel(&s.Operator),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Event represents an event in API responses
type Event struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Date      model.Date `json:"date"`
	CreatedAt time.Time  `json:"created_at"`
}

// EventFromModel converts model.Event
func EventFromModel(e *model.Event) Event {
	return Event{
		ID:        string(e.ID),
		Name:      e.Name,
		Date:      e.Date,
		CreatedAt: e.CreatedAt,
	}
}

// EventsFromModel converts a list of events
func EventsFromModel(events []*model.Event) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = EventFromModel(e)
	}
	return out
}

// Guest represents a guest in API responses
type Guest struct {
	ID               string      `json:"id"`
	EventID          string      `json:"event_id"`
	DisplayName      string      `json:"display_name"`
	Category         string      `json:"category"`
	Phone            string      `json:"phone,omitempty"`
	DateOfBirth      *model.Date `json:"date_of_birth,omitempty"`
	IsAtypical       bool        `json:"is_atypical"`
	ResponsibleID    *string     `json:"responsible_id"`
	AttendanceState  string      `json:"attendance_state"`
	CheckInAt        *time.Time  `json:"check_in_at"`
	CheckOutAt       *time.Time  `json:"check_out_at"`
	RegisteredOnSite bool        `json:"registered_on_site"`
	CreatedAt        time.Time   `json:"created_at"`
}

// GuestFromModel converts model.Guest
func GuestFromModel(g *model.Guest) Guest {
	var responsible *string
	if g.IsDependent() {
		r := string(*g.ResponsibleID)
		responsible = &r
	}
	return Guest{
		ID:               string(g.ID),
		EventID:          string(g.EventID),
		DisplayName:      g.DisplayName,
		Category:         string(g.Category),
		Phone:            g.Phone,
		DateOfBirth:      g.DateOfBirth,
		IsAtypical:       g.IsAtypical,
		ResponsibleID:    responsible,
		AttendanceState:  string(g.AttendanceState),
		CheckInAt:        g.CheckInAt,
		CheckOutAt:       g.CheckOutAt,
		RegisteredOnSite: g.RegisteredOnSite,
		CreatedAt:        g.CreatedAt,
	}
}

// GuestsFromModel converts a list of guests
func GuestsFromModel(guests []*model.Guest) []Guest {
	out := make([]Guest, len(guests))
	for i, g := range guests {
		out[i] = GuestFromModel(g)
	}
	return out
}

// GuestNode is a root guest with its dependents
type GuestNode struct {
	Guest      Guest   `json:"guest"`
	Dependents []Guest `json:"dependents"`
}

// TreeFromModel converts the hierarchy view of an event
func TreeFromModel(nodes []*model.GuestNode) []GuestNode {
	out := make([]GuestNode, len(nodes))
	for i, n := range nodes {
		out[i] = GuestNode{
			Guest:      GuestFromModel(n.Guest),
			Dependents: GuestsFromModel(n.Dependents),
		}
	}
	return out
}

// MemberResult is the per-guest result of a check-in or check-out
type MemberResult struct {
	GuestID       string `json:"guest_id"`
	DisplayName   string `json:"display_name"`
	IsResponsible bool   `json:"is_responsible"`
	Outcome       string `json:"outcome"`
	State         string `json:"state"`
}

// GroupResult is the response for check-in and check-out endpoints
type GroupResult struct {
	EventID       string         `json:"event_id"`
	ResponsibleID string         `json:"responsible_id"`
	Applied       int            `json:"applied"`
	Members       []MemberResult `json:"members"`
}

// GroupResultFromModel converts model.GroupResult
func GroupResultFromModel(r *model.GroupResult) GroupResult {
	members := make([]MemberResult, len(r.Members))
	for i, m := range r.Members {
		members[i] = MemberResult{
			GuestID:       string(m.GuestID),
			DisplayName:   m.DisplayName,
			IsResponsible: m.IsResponsible,
			Outcome:       string(m.Outcome),
			State:         string(m.State),
		}
	}
	return GroupResult{
		EventID:       string(r.EventID),
		ResponsibleID: string(r.ResponsibleID),
		Applied:       r.AppliedCount(),
		Members:       members,
	}
}

// Assessment is one child's eligibility
type Assessment struct {
	Index             int    `json:"index"`
	Name              string `json:"name"`
	Age               int    `json:"age"`
	RequiresCompanion bool   `json:"requires_companion"`
}

// Eligibility is the response for the eligibility endpoint
type Eligibility struct {
	EventDate          model.Date   `json:"event_date"`
	Threshold          int          `json:"threshold"`
	Children           []Assessment `json:"children"`
	RequiringCompanion []int        `json:"requiring_companion"`
}

// EligibilityFromAssessments builds an Eligibility response
func EligibilityFromAssessments(eventDate model.Date, threshold int, assessments []eligibility.Assessment) Eligibility {
	children := make([]Assessment, len(assessments))
	for i, a := range assessments {
		children[i] = Assessment{
			Index:             a.Index,
			Name:              a.Name,
			Age:               a.Age,
			RequiresCompanion: a.RequiresCompanion,
		}
	}
	requiring := eligibility.AnyRequiresCompanion(assessments)
	if requiring == nil {
		requiring = []int{}
	}
	return Eligibility{
		EventDate:          eventDate,
		Threshold:          threshold,
		Children:           children,
		RequiringCompanion: requiring,
	}
}

// Health is the response for the health endpoint
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
