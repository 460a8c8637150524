package model

import "time"

// ActivityType identifies the kind of live activity published to operators
type ActivityType string

const (
	ActivityGuestsRegistered ActivityType = "guests_registered"
	ActivityGuestRemoved     ActivityType = "guest_removed"
	ActivityAttendance       ActivityType = "attendance"
)

// Activity is a change to an event's guest list, pushed to watching operators
type Activity struct {
	Type      ActivityType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	EventID   EventID      `json:"event_id"`
	Payload   any          `json:"payload"` // Type-specific data
}
