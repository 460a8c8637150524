package storage

import (
	"sort"

	"github.com/mcoot/guestdesk/internal/model"
)

// SortGuests orders guests by creation time, then id, so every backend lists them identically
func SortGuests(guests []*model.Guest) {
	sort.SliceStable(guests, func(i, j int) bool {
		if !guests[i].CreatedAt.Equal(guests[j].CreatedAt) {
			return guests[i].CreatedAt.Before(guests[j].CreatedAt)
		}
		return guests[i].ID < guests[j].ID
	})
}

// ApplyUpdates applies planned updates to the matching guests in place.
// It returns the guests that changed, or the first transition error.
func ApplyUpdates(guests []*model.Guest, updates []model.AttendanceUpdate) ([]*model.Guest, error) {
	byID := make(map[model.GuestID]*model.Guest, len(guests))
	for _, g := range guests {
		byID[g.ID] = g
	}

	changed := make([]*model.Guest, 0, len(updates))
	for _, u := range updates {
		g, ok := byID[u.GuestID]
		if !ok {
			return nil, model.ErrGuestNotFound
		}
		if err := g.ApplyAttendance(u); err != nil {
			return nil, err
		}
		changed = append(changed, g)
	}
	return changed, nil
}

// SortEvents orders events by date, then id
func SortEvents(events []*model.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].ID < events[j].ID
	})
}
