package storage

import (
	"context"
	"time"

	"github.com/mcoot/guestdesk/internal/model"
)

// DefaultDraftTTL is how long an untouched confirmation draft stays resumable
const DefaultDraftTTL = 12 * time.Hour

// AttendancePlanner decides which attendance updates to commit from a consistent snapshot
// of an event's guest list. Returning an error aborts the write.
// Backends using optimistic transactions may invoke the planner more than once.
type AttendancePlanner func(guests []*model.Guest) ([]model.AttendanceUpdate, error)

// Storage defines the interface for data persistence
type Storage interface {
	// Operator operations
	SaveOperator(ctx context.Context, operator *model.Operator) error
	GetOperator(ctx context.Context, id model.OperatorID) (*model.Operator, error)

	// Registered operator operations
	SaveRegisteredOperator(ctx context.Context, ro *model.RegisteredOperator) error
	GetRegisteredOperator(ctx context.Context, operatorID model.OperatorID) (*model.RegisteredOperator, error)
	GetRegisteredOperatorByUsername(ctx context.Context, username string) (*model.RegisteredOperator, error)

	// Event operations
	SaveEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, id model.EventID) (*model.Event, error)
	EventExists(ctx context.Context, id model.EventID) (bool, error)
	ListEvents(ctx context.Context) ([]*model.Event, error)

	// Guest operations
	// CreateGuests persists all guests or none of them
	CreateGuests(ctx context.Context, guests []*model.Guest) error
	GetGuest(ctx context.Context, id model.GuestID) (*model.Guest, error)
	// ListGuests returns an event's guests ordered by creation time, then id
	ListGuests(ctx context.Context, eventID model.EventID) ([]*model.Guest, error)
	DeleteGuest(ctx context.Context, id model.GuestID) error
	// UpdateAttendance runs planner against one snapshot of the event's guests and commits
	// every returned update together, or none of them
	UpdateAttendance(ctx context.Context, eventID model.EventID, planner AttendancePlanner) error

	// Draft operations (session-scoped confirmation drafts).
	// A draft not saved again within the backend's TTL reads as ErrDraftNotFound.
	SaveDraft(ctx context.Context, id model.DraftSessionID, draft *model.GuestGroupDraft) error
	GetDraft(ctx context.Context, id model.DraftSessionID) (*model.GuestGroupDraft, error)
	DeleteDraft(ctx context.Context, id model.DraftSessionID) error
}
