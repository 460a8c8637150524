package model

import "time"

// EventID is the short code identifying a venue event
type EventID string

// Event is a single party or booking at the venue
type Event struct {
	ID        EventID
	Name      string
	Date      Date // Calendar date the event takes place on
	CreatedAt time.Time
	UpdatedAt time.Time
}
