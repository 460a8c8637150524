package flow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/guestdesk/internal/dependencies/clock"
	"github.com/mcoot/guestdesk/internal/model"
)

// DraftStore persists a session's draft between steps so the flow can resume
type DraftStore interface {
	SaveDraft(ctx context.Context, id model.DraftSessionID, draft *model.GuestGroupDraft) error
	GetDraft(ctx context.Context, id model.DraftSessionID) (*model.GuestGroupDraft, error)
	DeleteDraft(ctx context.Context, id model.DraftSessionID) error
}

// Submitter persists an assembled group as a unit
type Submitter interface {
	SubmitGroup(ctx context.Context, eventID model.EventID, submission model.GroupSubmission) ([]*model.Guest, error)
}

// Session drives one user's flow: it saves the draft after every transition, performs
// the submit on entering Submitting, and deletes the draft on success or abandonment.
type Session struct {
	mu         sync.Mutex
	id         model.DraftSessionID
	flow       *Flow
	drafts     DraftStore
	submitter  Submitter
	clock      clock.Clock
	logger     *slog.Logger
	step       Step
	submitting bool
}

// StartSession loads the session's draft, if any, and positions the flow at the step the
// draft's data implies. A draft saved for another event is discarded.
func StartSession(
	ctx context.Context,
	f *Flow,
	id model.DraftSessionID,
	drafts DraftStore,
	submitter Submitter,
	clk clock.Clock,
	logger *slog.Logger,
) (*Session, error) {
	draft, err := drafts.GetDraft(ctx, id)
	if err != nil && !errors.Is(err, model.ErrDraftNotFound) {
		return nil, err
	}
	if draft != nil && draft.EventID != f.EventID() {
		draft = nil
	}

	return &Session{
		id:        id,
		flow:      f,
		drafts:    drafts,
		submitter: submitter,
		clock:     clk,
		logger:    logger.With("session_id", id, "event_id", f.EventID()),
		step:      f.InitialStep(draft),
	}, nil
}

// ID returns the draft session id
func (s *Session) ID() model.DraftSessionID {
	return s.id
}

// Step returns the current step
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Dispatch applies an action. When the action enters Submitting, the payload is sent with
// ctx; cancelling ctx abandons the call and the flow moves to Failed. Dispatch fails with
// ErrSubmissionInProgress while a submit is outstanding, and a failed submit returns the
// Failed step together with its *model.SubmissionError. Nothing is retried automatically.
func (s *Session) Dispatch(ctx context.Context, action Action) (Step, error) {
	s.mu.Lock()
	if s.submitting {
		current := s.step
		s.mu.Unlock()
		return current, model.ErrSubmissionInProgress
	}

	next, err := s.flow.Apply(s.step, action)
	if err != nil {
		s.mu.Unlock()
		return next, err
	}
	s.step = next

	submitting, ok := next.(Submitting)
	if !ok {
		s.mu.Unlock()
		s.saveDraft(ctx, next.Draft())
		return next, nil
	}

	s.submitting = true
	s.mu.Unlock()
	s.saveDraft(ctx, submitting.Draft())

	return s.submit(ctx, submitting)
}

func (s *Session) submit(ctx context.Context, step Submitting) (Step, error) {
	s.logger.Info("submitting guest group", "guests", len(step.Submission.Guests))

	guests, err := s.submitter.SubmitGroup(ctx, s.flow.EventID(), step.Submission)
	if err == nil {
		// A result that arrives after cancellation is discarded
		err = ctx.Err()
	}

	var result Action = submissionSucceeded{guests: guests}
	if err != nil {
		result = submissionFailed{err: &model.SubmissionError{Err: err}}
	}

	s.mu.Lock()
	next, applyErr := s.flow.Apply(step, result)
	s.step = next
	s.submitting = false
	s.mu.Unlock()
	if applyErr != nil {
		return next, applyErr
	}

	if failed, ok := next.(Failed); ok {
		s.logger.Warn("guest group submission failed", "error", err)
		// The caller's context may be cancelled; keep the draft regardless
		s.saveDraft(context.WithoutCancel(ctx), failed.Draft())
		return next, failed.Err
	}

	s.logger.Info("guest group submitted", "guests", len(guests))
	if err := s.drafts.DeleteDraft(ctx, s.id); err != nil {
		s.logger.Warn("failed to delete draft", "error", err)
	}
	return next, nil
}

// Abandon discards the draft and restarts the flow
func (s *Session) Abandon(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return model.ErrSubmissionInProgress
	}
	if err := s.drafts.DeleteDraft(ctx, s.id); err != nil {
		return err
	}
	s.step = s.flow.InitialStep(nil)
	return nil
}

// saveDraft persists the draft for resuming. Failures are logged, not returned.
func (s *Session) saveDraft(ctx context.Context, draft *model.GuestGroupDraft) {
	if draft == nil {
		return
	}
	draft = draft.Clone()
	draft.UpdatedAt = s.clock.Now()
	if err := s.drafts.SaveDraft(ctx, s.id, draft); err != nil {
		s.logger.Warn("failed to save draft", "error", err)
	}
}
