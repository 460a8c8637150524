package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/guestdesk/internal/dependencies/clock"
	"github.com/mcoot/guestdesk/internal/dependencies/random"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/eligibility"
	"github.com/mcoot/guestdesk/internal/services/hierarchy"
	"github.com/mcoot/guestdesk/internal/storage"
)

// Notifier is told about guest list changes after they are committed
type Notifier interface {
	GuestsRegistered(ctx context.Context, eventID model.EventID, guests []*model.Guest, onSite bool)
	GuestRemoved(ctx context.Context, eventID model.EventID, guestID model.GuestID)
}

// Service persists guest groups and maintains the responsible-guest links
type Service struct {
	storage  storage.Storage
	policy   *eligibility.Policy
	clock    clock.Clock
	random   random.Random
	notifier Notifier
	logger   *slog.Logger
}

// New creates a new registration Service. notifier may be nil.
func New(
	storage storage.Storage,
	policy *eligibility.Policy,
	clock clock.Clock,
	random random.Random,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:  storage,
		policy:   policy,
		clock:    clock,
		random:   random,
		notifier: notifier,
		logger:   logger,
	}
}

// SubmitGroup validates and persists a confirmation flow payload as one unit.
// The companion rule is checked again here: every child who needs a companion
// must point at an adult record of the same submission.
// Positional references become responsible guest ids once ids are assigned.
func (s *Service) SubmitGroup(ctx context.Context, eventID model.EventID, submission model.GroupSubmission) ([]*model.Guest, error) {
	event, err := s.storage.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(submission.ResponsibleContact.Name) == "" {
		return nil, model.NewValidationError("responsible_contact.name", "name is required")
	}
	if len(submission.Guests) == 0 {
		return nil, model.NewValidationError("guests", "at least one guest is required")
	}

	records := submission.Guests
	for i, record := range records {
		field := fmt.Sprintf("guests[%d]", i)
		if err := validateRecord(field, record, event.Date); err != nil {
			return nil, err
		}
		if record.ResponsibleID != nil {
			return nil, model.NewValidationError(field+".responsible_id", "use responsible_index within a group")
		}
	}
	if err := validatePositions(records); err != nil {
		return nil, err
	}
	if err := s.checkCompanions(records, event.Date); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	guests := make([]*model.Guest, len(records))
	for i, record := range records {
		// Offset creation times so the group lists in submission order
		guests[i] = s.newGuest(eventID, record, now.Add(time.Duration(i)))
	}
	for i, record := range records {
		if record.ResponsibleIndex != nil {
			id := guests[*record.ResponsibleIndex].ID
			guests[i].ResponsibleID = &id
		}
	}

	if err := s.storage.CreateGuests(ctx, guests); err != nil {
		s.logger.Error("failed to create guest group",
			slog.String("event_id", string(eventID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("guest group registered",
		slog.String("event_id", string(eventID)),
		slog.Int("guests", len(guests)),
	)
	if s.notifier != nil {
		s.notifier.GuestsRegistered(ctx, eventID, guests, false)
	}
	return guests, nil
}

// RegisterOnSite adds a single guest on the day of the event, optionally as the
// dependent of an existing guest
func (s *Service) RegisterOnSite(ctx context.Context, eventID model.EventID, record model.GuestRecord) (*model.Guest, error) {
	event, err := s.storage.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := validateRecord("guest", record, event.Date); err != nil {
		return nil, err
	}
	if record.ResponsibleIndex != nil {
		return nil, model.NewValidationError("guest.responsible_index", "use responsible_id for a single guest")
	}

	guest := s.newGuest(eventID, record, s.clock.Now())
	guest.RegisteredOnSite = true

	if record.ResponsibleID != nil {
		flat, err := s.storage.ListGuests(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if err := hierarchy.ValidateLink(flat, guest, *record.ResponsibleID); err != nil {
			return nil, s.explainLinkError(ctx, eventID, *record.ResponsibleID, err)
		}
		id := *record.ResponsibleID
		guest.ResponsibleID = &id
	}

	if err := s.storage.CreateGuests(ctx, []*model.Guest{guest}); err != nil {
		return nil, err
	}

	s.logger.Info("guest registered on site",
		slog.String("event_id", string(eventID)),
		slog.String("guest_id", string(guest.ID)),
	)
	if s.notifier != nil {
		s.notifier.GuestsRegistered(ctx, eventID, []*model.Guest{guest}, true)
	}
	return guest, nil
}

// ListGuests returns the event's flat guest list
func (s *Service) ListGuests(ctx context.Context, eventID model.EventID) ([]*model.Guest, error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.storage.ListGuests(ctx, eventID)
}

// Tree returns the event's guests grouped under their responsible guests, sorted by name
func (s *Service) Tree(ctx context.Context, eventID model.EventID) ([]*model.GuestNode, error) {
	guests, err := s.ListGuests(ctx, eventID)
	if err != nil {
		return nil, err
	}
	nodes := hierarchy.BuildTree(guests)
	hierarchy.SortByName(nodes)
	return nodes, nil
}

// RemoveGuest deletes a guest. Dependents keep their reference and list as roots.
func (s *Service) RemoveGuest(ctx context.Context, id model.GuestID) error {
	guest, err := s.storage.GetGuest(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteGuest(ctx, id); err != nil {
		return err
	}

	s.logger.Info("guest removed",
		slog.String("event_id", string(guest.EventID)),
		slog.String("guest_id", string(id)),
	)
	if s.notifier != nil {
		s.notifier.GuestRemoved(ctx, guest.EventID, id)
	}
	return nil
}

// explainLinkError reports a responsible guest missing from this event's list as a
// cross-event reference when it exists elsewhere
func (s *Service) explainLinkError(ctx context.Context, eventID model.EventID, responsibleID model.GuestID, err error) error {
	if !errors.Is(err, model.ErrResponsibleNotFound) {
		return err
	}
	other, getErr := s.storage.GetGuest(ctx, responsibleID)
	if getErr == nil && other.EventID != eventID {
		return model.ErrCrossEventReference
	}
	return err
}

func (s *Service) requireEvent(ctx context.Context, eventID model.EventID) error {
	exists, err := s.storage.EventExists(ctx, eventID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrEventNotFound
	}
	return nil
}

func (s *Service) newGuest(eventID model.EventID, record model.GuestRecord, createdAt time.Time) *model.Guest {
	guest := &model.Guest{
		ID:              model.GuestID(s.random.UUID()),
		EventID:         eventID,
		DisplayName:     strings.TrimSpace(record.DisplayName),
		Category:        record.Category,
		Phone:           strings.TrimSpace(record.Phone),
		IsAtypical:      record.IsAtypical && record.Category.IsChild(),
		AttendanceState: model.AttendanceAwaiting,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	if record.DateOfBirth != nil {
		dob := *record.DateOfBirth
		guest.DateOfBirth = &dob
	}
	return guest
}

func validateRecord(field string, record model.GuestRecord, eventDate model.Date) error {
	if strings.TrimSpace(record.DisplayName) == "" {
		return model.NewValidationError(field+".display_name", "name is required")
	}
	if !record.Category.Valid() {
		return model.NewValidationError(field+".category", "unknown category %q", record.Category)
	}
	if !record.Category.IsChild() {
		return nil
	}
	if record.DateOfBirth == nil || record.DateOfBirth.IsZero() {
		return model.NewValidationError(field+".date_of_birth", "date of birth is required for children")
	}
	if record.DateOfBirth.After(eventDate) {
		return model.NewValidationError(field+".date_of_birth", "date of birth is after the event")
	}
	return nil
}

// validatePositions checks the group's positional references. Every record is
// checked for range and self reference before any depth check, so a
// self-referencing target is reported as such.
func validatePositions(records []model.GuestRecord) error {
	for i, record := range records {
		ref := record.ResponsibleIndex
		if ref == nil {
			continue
		}
		field := fmt.Sprintf("guests[%d]", i)
		if *ref < 0 || *ref >= len(records) {
			return model.NewValidationError(field+".responsible_index", "no guest at position %d", *ref)
		}
		if *ref == i {
			return fmt.Errorf("%s: %w", field, model.ErrSelfReference)
		}
	}
	for i, record := range records {
		if record.ResponsibleIndex == nil {
			continue
		}
		field := fmt.Sprintf("guests[%d]", i)
		target := records[*record.ResponsibleIndex]
		if target.ResponsibleIndex != nil {
			return fmt.Errorf("%s: %w", field, model.ErrHierarchyTooDeep)
		}
		if target.Category.IsChild() {
			return fmt.Errorf("%s: %w", field, model.ErrChildResponsible)
		}
	}
	return nil
}

// checkCompanions requires at least one child, and an adult for each child the
// policy says cannot attend alone. References are already known to be valid.
func (s *Service) checkCompanions(records []model.GuestRecord, eventDate model.Date) error {
	var children []model.ChildEntry
	var positions []int
	for i, record := range records {
		if record.Category.IsChild() {
			children = append(children, model.ChildEntry{
				Name:        record.DisplayName,
				DateOfBirth: record.DateOfBirth,
				IsAtypical:  record.IsAtypical,
			})
			positions = append(positions, i)
		}
	}
	if len(children) == 0 {
		return model.NewValidationError("guests", "at least one child is required")
	}

	assessments, err := s.policy.Evaluate(children, eventDate)
	if err != nil {
		return err
	}
	for _, idx := range eligibility.AnyRequiresCompanion(assessments) {
		pos := positions[idx]
		if records[pos].ResponsibleIndex == nil {
			return model.NewValidationError(fmt.Sprintf("guests[%d].responsible_index", pos),
				"%s must be accompanied by an adult of the group", strings.TrimSpace(records[pos].DisplayName))
		}
	}
	return nil
}
