package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mcoot/guestdesk/internal/api/request"
	"github.com/mcoot/guestdesk/internal/api/response"
	"github.com/mcoot/guestdesk/internal/dependencies/clock"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/eligibility"
	"github.com/mcoot/guestdesk/internal/services/flow"
)

var (
	errBack = errors.New("back")
	errQuit = errors.New("quit")
)

func newConfirmCmd() *cobra.Command {
	var eventID, sessionID string

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirm a guest group interactively",
		Long: `Walk a responsible adult through confirming their group for an event.

Progress is saved on the server after every step. Type "back" at any prompt to return to
the previous step, or "quit" to stop; run again with --session to resume.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				sessionID = uuid.NewString()
			} else if _, err := uuid.Parse(sessionID); err != nil {
				return fmt.Errorf("--session must be a uuid")
			}

			session, err := startRemoteSession(cmd.Context(), client, model.EventID(eventID), model.DraftSessionID(sessionID), cliLogger(cmd))
			if err != nil {
				return err
			}

			w := newWizard(session, cmd.InOrStdin(), cmd.OutOrStdout())
			err = w.Run(cmd.Context())
			if errors.Is(err, errQuit) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nProgress saved. Resume with: guestdesk confirm --event %s --session %s\n", eventID, sessionID)
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&eventID, "event", "", "Event ID (required)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to resume")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

// startRemoteSession builds a flow for the event from the server's eligibility rules and
// resumes the session's saved draft, if any
func startRemoteSession(ctx context.Context, c *Client, eventID model.EventID, sessionID model.DraftSessionID, logger *slog.Logger) (*flow.Session, error) {
	var rules response.Eligibility
	path := fmt.Sprintf("/api/v1/events/%s/eligibility", eventID)
	if err := c.Post(path, request.EligibilityRequest{Children: []model.ChildEntry{}}, &rules); err != nil {
		return nil, err
	}

	policy := eligibility.New(eligibility.Config{CompanionAgeThreshold: rules.Threshold})
	f := flow.New(policy, eventID, rules.EventDate)
	return flow.StartSession(ctx, f, sessionID, &remoteDrafts{client: c}, &remoteSubmitter{client: c}, clock.New(), logger)
}

func cliLogger(cmd *cobra.Command) *slog.Logger {
	if !cfg.Verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// wizard renders each flow step as terminal prompts
type wizard struct {
	session *flow.Session
	in      *bufio.Scanner
	out     io.Writer
}

func newWizard(session *flow.Session, in io.Reader, out io.Writer) *wizard {
	return &wizard{
		session: session,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run prompts until the group is submitted. It returns errQuit when the user stops or
// input ends.
func (w *wizard) Run(ctx context.Context) error {
	for {
		var (
			action flow.Action
			err    error
		)

		switch s := w.session.Step().(type) {
		case flow.CollectingResponsible:
			action, err = w.askResponsible(s.Draft())
		case flow.CollectingChildren:
			action, err = w.askChildren(s.Draft())
		case flow.CollectingCompanion:
			action, err = w.askCompanion(s)
		case flow.FinalConfirmation:
			action, err = w.askAttendance(s.Draft())
		case flow.Failed:
			action, err = w.askRetry(s)
		case flow.Succeeded:
			w.printSucceeded(s)
			return nil
		default:
			return fmt.Errorf("unexpected step %s", s.Name())
		}

		if errors.Is(err, errBack) {
			action = flow.GoBack{}
		} else if err != nil {
			return err
		}

		_, err = w.session.Dispatch(ctx, action)
		var ve *model.ValidationError
		var se *model.SubmissionError
		switch {
		case err == nil:
		case errors.As(err, &ve):
			w.printf("  ! %s\n", ve.Error())
		case errors.Is(err, model.ErrNoPreviousStep):
			w.printf("  ! already at the first step\n")
		case errors.As(err, &se):
			// The Failed step reports it
		default:
			return err
		}
	}
}

func (w *wizard) askResponsible(draft *model.GuestGroupDraft) (flow.Action, error) {
	w.printf("\n== Responsible adult ==\n")

	var current model.DraftResponsible
	var attending *bool
	if draft.Responsible != nil {
		current = *draft.Responsible
		attending = &current.SelfAttending
	}

	name, err := w.ask("Your name", current.Name)
	if err != nil {
		return nil, err
	}
	phone, err := w.ask("Phone", current.Phone)
	if err != nil {
		return nil, err
	}
	selfAttending, err := w.askYesNo("Will you attend", attending)
	if err != nil {
		return nil, err
	}

	return flow.SubmitResponsible{Name: name, Phone: phone, SelfAttending: &selfAttending}, nil
}

func (w *wizard) askChildren(draft *model.GuestGroupDraft) (flow.Action, error) {
	w.printf("\n== Children ==\n")

	count, err := w.askCount("How many children", len(draft.Children))
	if err != nil {
		return nil, err
	}

	children := make([]model.ChildEntry, count)
	for i := range children {
		var current model.ChildEntry
		if i < len(draft.Children) {
			current = draft.Children[i]
		}

		w.printf("Child %d\n", i+1)
		name, err := w.ask("  Name", current.Name)
		if err != nil {
			return nil, err
		}
		dob, err := w.askDate("  Date of birth (YYYY-MM-DD)", current.DateOfBirth)
		if err != nil {
			return nil, err
		}
		atypical, err := w.askYesNo("  Needs special supervision", &current.IsAtypical)
		if err != nil {
			return nil, err
		}

		children[i] = model.ChildEntry{Name: name, DateOfBirth: dob, IsAtypical: atypical}
	}

	return flow.SubmitChildren{Children: children}, nil
}

func (w *wizard) askCompanion(s flow.CollectingCompanion) (flow.Action, error) {
	draft := s.Draft()
	w.printf("\n== Companion ==\n")

	names := make([]string, len(s.RequiringCompanion))
	for i, idx := range s.RequiringCompanion {
		names[i] = draft.Children[idx].Name
	}
	w.printf("An adult must accompany: %s\n", strings.Join(names, ", "))

	var current model.CompanionChoice
	if draft.Companion != nil {
		current = *draft.Companion
	}

	for {
		kind, err := w.ask(`Who accompanies them? ("self" or "other")`, string(current.Kind))
		if err != nil {
			return nil, err
		}

		switch model.CompanionKind(strings.ToLower(kind)) {
		case model.CompanionSelf:
			return flow.ChooseCompanion{Kind: model.CompanionSelf}, nil
		case model.CompanionOther:
			name, err := w.ask("  Companion's name", current.Name)
			if err != nil {
				return nil, err
			}
			phone, err := w.ask("  Companion's phone", current.Phone)
			if err != nil {
				return nil, err
			}
			nanny, err := w.askYesNo("  Is the companion a nanny", &current.IsNanny)
			if err != nil {
				return nil, err
			}
			return flow.ChooseCompanion{Kind: model.CompanionOther, Name: name, Phone: phone, IsNanny: nanny}, nil
		default:
			w.printf("  ! answer self or other\n")
		}
	}
}

func (w *wizard) askAttendance(draft *model.GuestGroupDraft) (flow.Action, error) {
	w.printf("\n== Confirmation ==\n")
	for _, c := range draft.Children {
		w.printf("  %s (born %s)\n", c.Name, c.DateOfBirth)
	}

	current := draft.AttendanceAnswer
	if current == nil && draft.Responsible != nil {
		current = &draft.Responsible.SelfAttending
	}
	attending, err := w.askYesNo("Will you attend as well", current)
	if err != nil {
		return nil, err
	}
	return flow.ConfirmAttendance{Attending: &attending}, nil
}

func (w *wizard) askRetry(s flow.Failed) (flow.Action, error) {
	w.printf("\nSubmission failed: %s\n", s.Err)
	retry := true
	ok, err := w.askYesNo("Try again", &retry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errBack
	}
	return flow.Retry{}, nil
}

func (w *wizard) printSucceeded(s flow.Succeeded) {
	w.printf("\nConfirmed %d guests:\n", len(s.Guests))
	for _, g := range s.Guests {
		w.printf("  %s  %-20s %s\n", g.ID, g.DisplayName, g.Category)
	}
}

// ask reads one line. An empty answer keeps current.
func (w *wizard) ask(label, current string) (string, error) {
	if current != "" {
		w.printf("%s [%s]: ", label, current)
	} else {
		w.printf("%s: ", label)
	}

	if !w.in.Scan() {
		if err := w.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}

	answer := strings.TrimSpace(w.in.Text())
	switch strings.ToLower(answer) {
	case "back":
		return "", errBack
	case "quit":
		return "", errQuit
	case "":
		return current, nil
	}
	return answer, nil
}

func (w *wizard) askYesNo(label string, current *bool) (bool, error) {
	def := ""
	if current != nil {
		def = "n"
		if *current {
			def = "y"
		}
	}

	for {
		answer, err := w.ask(label+" (y/n)", def)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		w.printf("  ! answer y or n\n")
	}
}

func (w *wizard) askCount(label string, current int) (int, error) {
	def := ""
	if current > 0 {
		def = strconv.Itoa(current)
	}

	for {
		answer, err := w.ask(label, def)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n > 0 {
			return n, nil
		}
		w.printf("  ! enter a number of at least 1\n")
	}
}

// askDate returns nil for an empty answer with nothing to keep
func (w *wizard) askDate(label string, current *model.Date) (*model.Date, error) {
	def := ""
	if current != nil {
		def = current.String()
	}

	for {
		answer, err := w.ask(label, def)
		if err != nil {
			return nil, err
		}
		if answer == "" {
			return nil, nil
		}
		d, err := model.ParseDate(answer)
		if err == nil {
			return &d, nil
		}
		w.printf("  ! %s\n", err)
	}
}

func (w *wizard) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format, args...)
}

