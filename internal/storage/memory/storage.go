package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	operators           map[model.OperatorID]*model.Operator
	registeredOperators map[model.OperatorID]*model.RegisteredOperator
	usernameIndex       map[string]model.OperatorID
	events              map[model.EventID]*model.Event
	guests              map[model.GuestID]*model.Guest
	eventGuests         map[model.EventID]map[model.GuestID]struct{}
	drafts              map[model.DraftSessionID]savedDraft
	draftTTL            time.Duration
	now                 func() time.Time

	// eventLocks serialize guest-list writes per event; disjoint events never contend
	locksMu    sync.Mutex
	eventLocks map[model.EventID]*sync.Mutex
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		operators:           make(map[model.OperatorID]*model.Operator),
		registeredOperators: make(map[model.OperatorID]*model.RegisteredOperator),
		usernameIndex:       make(map[string]model.OperatorID),
		events:              make(map[model.EventID]*model.Event),
		guests:              make(map[model.GuestID]*model.Guest),
		eventGuests:         make(map[model.EventID]map[model.GuestID]struct{}),
		drafts:              make(map[model.DraftSessionID]savedDraft),
		draftTTL:            storage.DefaultDraftTTL,
		now:                 time.Now,
		eventLocks:          make(map[model.EventID]*sync.Mutex),
	}
}

type savedDraft struct {
	draft   *model.GuestGroupDraft
	savedAt time.Time
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) eventLock(id model.EventID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.eventLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.eventLocks[id] = l
	}
	return l
}

// Operator operations

func (s *Storage) SaveOperator(ctx context.Context, operator *model.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	op := *operator
	s.operators[operator.ID] = &op
	return nil
}

func (s *Storage) GetOperator(ctx context.Context, id model.OperatorID) (*model.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	operator, ok := s.operators[id]
	if !ok {
		return nil, model.ErrOperatorNotFound
	}
	op := *operator
	return &op, nil
}

// Registered operator operations

func (s *Storage) SaveRegisteredOperator(ctx context.Context, ro *model.RegisteredOperator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *ro
	s.registeredOperators[ro.OperatorID] = &r
	s.usernameIndex[ro.Username] = ro.OperatorID
	return nil
}

func (s *Storage) GetRegisteredOperator(ctx context.Context, operatorID model.OperatorID) (*model.RegisteredOperator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ro, ok := s.registeredOperators[operatorID]
	if !ok {
		return nil, model.ErrOperatorNotFound
	}
	r := *ro
	return &r, nil
}

func (s *Storage) GetRegisteredOperatorByUsername(ctx context.Context, username string) (*model.RegisteredOperator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	operatorID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrOperatorNotFound
	}
	ro, ok := s.registeredOperators[operatorID]
	if !ok {
		return nil, model.ErrOperatorNotFound
	}
	r := *ro
	return &r, nil
}

// Event operations

func (s *Storage) SaveEvent(ctx context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *event
	s.events[event.ID] = &e
	return nil
}

func (s *Storage) GetEvent(ctx context.Context, id model.EventID) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	e := *event
	return &e, nil
}

func (s *Storage) EventExists(ctx context.Context, id model.EventID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.events[id]
	return ok, nil
}

func (s *Storage) ListEvents(ctx context.Context) ([]*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]*model.Event, 0, len(s.events))
	for _, event := range s.events {
		e := *event
		events = append(events, &e)
	}
	storage.SortEvents(events)
	return events, nil
}

// Guest operations

func (s *Storage) CreateGuests(ctx context.Context, guests []*model.Guest) error {
	if len(guests) == 0 {
		return nil
	}

	// Group by event so each affected event's lock is held during the write
	eventIDs := make([]model.EventID, 0, 1)
	seen := make(map[model.EventID]bool)
	for _, g := range guests {
		if !seen[g.EventID] {
			seen[g.EventID] = true
			eventIDs = append(eventIDs, g.EventID)
		}
	}
	sort.Slice(eventIDs, func(i, j int) bool { return eventIDs[i] < eventIDs[j] })
	for _, id := range eventIDs {
		l := s.eventLock(id)
		l.Lock()
		defer l.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range guests {
		set, ok := s.eventGuests[g.EventID]
		if !ok {
			set = make(map[model.GuestID]struct{})
			s.eventGuests[g.EventID] = set
		}
		s.guests[g.ID] = g.Clone()
		set[g.ID] = struct{}{}
	}
	return nil
}

func (s *Storage) GetGuest(ctx context.Context, id model.GuestID) (*model.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guests[id]
	if !ok {
		return nil, model.ErrGuestNotFound
	}
	return g.Clone(), nil
}

func (s *Storage) ListGuests(ctx context.Context, eventID model.EventID) ([]*model.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listGuestsLocked(eventID), nil
}

func (s *Storage) listGuestsLocked(eventID model.EventID) []*model.Guest {
	ids := s.eventGuests[eventID]
	guests := make([]*model.Guest, 0, len(ids))
	for id := range ids {
		guests = append(guests, s.guests[id].Clone())
	}
	storage.SortGuests(guests)
	return guests
}

func (s *Storage) DeleteGuest(ctx context.Context, id model.GuestID) error {
	s.mu.RLock()
	g, ok := s.guests[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	l := s.eventLock(g.EventID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guests, id)
	delete(s.eventGuests[g.EventID], id)
	return nil
}

func (s *Storage) UpdateAttendance(ctx context.Context, eventID model.EventID, planner storage.AttendancePlanner) error {
	l := s.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	snapshot := s.listGuestsLocked(eventID)
	s.mu.RUnlock()

	updates, err := planner(snapshot)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	// Apply to copies first so a failed transition leaves nothing half-written
	working := make([]*model.Guest, len(snapshot))
	for i, g := range snapshot {
		working[i] = g.Clone()
	}
	changed, err := storage.ApplyUpdates(working, updates)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range changed {
		s.guests[g.ID] = g
	}
	return nil
}

// Draft operations

// SaveDraft stores a copy of the draft and drops any drafts that have expired
func (s *Storage) SaveDraft(ctx context.Context, id model.DraftSessionID, draft *model.GuestGroupDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for other, saved := range s.drafts {
		if s.expired(saved, now) {
			delete(s.drafts, other)
		}
	}
	s.drafts[id] = savedDraft{draft: draft.Clone(), savedAt: now}
	return nil
}

func (s *Storage) GetDraft(ctx context.Context, id model.DraftSessionID) (*model.GuestGroupDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	saved, ok := s.drafts[id]
	if !ok || s.expired(saved, s.now()) {
		return nil, model.ErrDraftNotFound
	}
	return saved.draft.Clone(), nil
}

func (s *Storage) expired(saved savedDraft, now time.Time) bool {
	return now.Sub(saved.savedAt) >= s.draftTTL
}

func (s *Storage) DeleteDraft(ctx context.Context, id model.DraftSessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}
