package sse

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mcoot/guestdesk/internal/api/response"
	"github.com/mcoot/guestdesk/internal/dependencies/clock"
	"github.com/mcoot/guestdesk/internal/model"
)

// GuestsRegisteredPayload is the payload of a guests_registered event
type GuestsRegisteredPayload struct {
	Guests []response.Guest `json:"guests"`
	OnSite bool             `json:"on_site"`
}

// GuestRemovedPayload is the payload of a guest_removed event
type GuestRemovedPayload struct {
	GuestID string `json:"guest_id"`
}

// AttendancePayload is the payload of an attendance event
type AttendancePayload struct {
	Group  bool                 `json:"group"`
	Result response.GroupResult `json:"result"`
}

// Broadcaster publishes guest list activity to the operators watching an event.
// It satisfies the registration and check-in notifier interfaces.
type Broadcaster struct {
	hubManager *HubManager
	clock      clock.Clock
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, clock clock.Clock, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		clock:      clock,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// GuestsRegistered broadcasts newly persisted guests
func (b *Broadcaster) GuestsRegistered(_ context.Context, eventID model.EventID, guests []*model.Guest, onSite bool) {
	b.publish(eventID, model.ActivityGuestsRegistered, GuestsRegisteredPayload{
		Guests: response.GuestsFromModel(guests),
		OnSite: onSite,
	})
}

// GuestRemoved broadcasts a guest deletion
func (b *Broadcaster) GuestRemoved(_ context.Context, eventID model.EventID, guestID model.GuestID) {
	b.publish(eventID, model.ActivityGuestRemoved, GuestRemovedPayload{GuestID: string(guestID)})
}

// AttendanceChanged broadcasts the result of a check-in or check-out
func (b *Broadcaster) AttendanceChanged(_ context.Context, result *model.GroupResult, group bool) {
	b.publish(result.EventID, model.ActivityAttendance, AttendancePayload{
		Group:  group,
		Result: response.GroupResultFromModel(result),
	})
}

func (b *Broadcaster) publish(eventID model.EventID, activityType model.ActivityType, payload any) {
	hub := b.hubManager.GetHub(eventID)
	if hub == nil {
		return
	}

	data, err := json.Marshal(model.Activity{
		Type:      activityType,
		Timestamp: b.clock.Now(),
		EventID:   eventID,
		Payload:   payload,
	})
	if err != nil {
		b.logger.Error("sse failed to encode activity",
			slog.String("event_id", string(eventID)),
			slog.String("type", string(activityType)),
			slog.Any("error", err))
		return
	}

	hub.BroadcastEvent(string(activityType), string(data))
}
