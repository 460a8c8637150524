package redis

import (
	"fmt"

	"github.com/mcoot/guestdesk/internal/model"
)

// Key prefix for all guestdesk data
const keyPrefix = "guestdesk"

// operatorKey returns the Redis key for an Operator
func operatorKey(id model.OperatorID) string {
	return fmt.Sprintf("%s:operator:%s", keyPrefix, id)
}

// registeredOperatorKey returns the Redis key for a RegisteredOperator
func registeredOperatorKey(operatorID model.OperatorID) string {
	return fmt.Sprintf("%s:registered_operator:%s", keyPrefix, operatorID)
}

// usernameIndexKey returns the Redis key for the username -> operator_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// eventKey returns the Redis key for an Event
func eventKey(id model.EventID) string {
	return fmt.Sprintf("%s:event:%s", keyPrefix, id)
}

// eventsIndexKey returns the Redis key for the SET of all event ids
func eventsIndexKey() string {
	return fmt.Sprintf("%s:idx:events", keyPrefix)
}

// guestKey returns the Redis key for a Guest
func guestKey(id model.GuestID) string {
	return fmt.Sprintf("%s:guest:%s", keyPrefix, id)
}

// eventGuestsIndexKey returns the Redis key for the SET of guest keys of an event
func eventGuestsIndexKey(eventID model.EventID) string {
	return fmt.Sprintf("%s:idx:event_guests:%s", keyPrefix, eventID)
}

// draftKey returns the Redis key for a confirmation draft
func draftKey(id model.DraftSessionID) string {
	return fmt.Sprintf("%s:draft:%s", keyPrefix, id)
}
