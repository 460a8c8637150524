package model

import "time"

// DraftSessionID identifies one browser (or CLI) session's in-progress confirmation
type DraftSessionID string

// CompanionKind says who accompanies the children
type CompanionKind string

const (
	CompanionSelf  CompanionKind = "self"  // The responsible adult
	CompanionOther CompanionKind = "other" // A distinct named adult
)

// DraftResponsible is the responsible adult as collected by the first step
type DraftResponsible struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	SelfAttending bool   `json:"self_attending"`
}

// ChildEntry is one child as entered by the responsible adult
type ChildEntry struct {
	Name        string `json:"name"`
	DateOfBirth *Date  `json:"date_of_birth,omitempty"`
	IsAtypical  bool   `json:"is_atypical"`
}

// CompanionChoice is the resolved companion selection
type CompanionChoice struct {
	Kind    CompanionKind `json:"kind"`
	Name    string        `json:"name,omitempty"`
	Phone   string        `json:"phone,omitempty"`
	IsNanny bool          `json:"is_nanny,omitempty"`
}

// GuestGroupDraft is the in-progress state of a guest group confirmation
type GuestGroupDraft struct {
	EventID          EventID           `json:"event_id"`
	Responsible      *DraftResponsible `json:"responsible,omitempty"`
	Children         []ChildEntry      `json:"children,omitempty"`
	Companion        *CompanionChoice  `json:"companion,omitempty"`
	AttendanceAnswer *bool             `json:"attendance_answer,omitempty"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Clone returns a deep copy of the draft
func (d *GuestGroupDraft) Clone() *GuestGroupDraft {
	c := *d
	if d.Responsible != nil {
		r := *d.Responsible
		c.Responsible = &r
	}
	if d.Children != nil {
		c.Children = make([]ChildEntry, len(d.Children))
		for i, child := range d.Children {
			c.Children[i] = child
			if child.DateOfBirth != nil {
				dob := *child.DateOfBirth
				c.Children[i].DateOfBirth = &dob
			}
		}
	}
	if d.Companion != nil {
		comp := *d.Companion
		c.Companion = &comp
	}
	if d.AttendanceAnswer != nil {
		a := *d.AttendanceAnswer
		c.AttendanceAnswer = &a
	}
	return &c
}
