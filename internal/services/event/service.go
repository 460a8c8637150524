package event

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mcoot/guestdesk/internal/dependencies/clock"
	"github.com/mcoot/guestdesk/internal/dependencies/random"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/storage"
)

const (
	// EventCodeLength is the length of generated event ids
	EventCodeLength = 8
	// EventCodeAlphabet is the characters used in event ids (avoid confusing chars)
	EventCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Service manages events
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new event Service
func New(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// CreateEvent creates an event held on date
func (s *Service) CreateEvent(ctx context.Context, name string, date model.Date) (*model.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewValidationError("name", "name is required")
	}
	if date.IsZero() {
		return nil, model.NewValidationError("date", "date is required")
	}

	// Generate unique event code
	var id model.EventID
	for {
		id = model.EventID(s.random.String(EventCodeLength, EventCodeAlphabet))
		exists, err := s.storage.EventExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	now := s.clock.Now()
	event := &model.Event{
		ID:        id,
		Name:      name,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.SaveEvent(ctx, event); err != nil {
		s.logger.Error("failed to save event",
			slog.String("event_id", string(id)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("event created",
		slog.String("event_id", string(id)),
		slog.String("date", date.String()),
	)
	return event, nil
}

// GetEvent retrieves an event by id
func (s *Service) GetEvent(ctx context.Context, id model.EventID) (*model.Event, error) {
	return s.storage.GetEvent(ctx, id)
}

// GetEventDate returns the calendar date the event is held on
func (s *Service) GetEventDate(ctx context.Context, id model.EventID) (model.Date, error) {
	event, err := s.storage.GetEvent(ctx, id)
	if err != nil {
		return model.Date{}, err
	}
	return event.Date, nil
}

// ListEvents returns every event ordered by date
func (s *Service) ListEvents(ctx context.Context) ([]*model.Event, error) {
	return s.storage.ListEvents(ctx)
}
