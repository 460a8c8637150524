package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/guestdesk/internal/api/request"
	"github.com/mcoot/guestdesk/internal/api/response"
	"github.com/mcoot/guestdesk/internal/model"
)

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Event management commands",
	}

	cmd.AddCommand(newEventCreateCmd())
	cmd.AddCommand(newEventGetCmd())
	cmd.AddCommand(newEventListCmd())

	return cmd
}

func newEventCreateCmd() *cobra.Command {
	var name, date string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.CreateEventRequest{Name: name, Date: date}
			var result response.Event

			if err := client.Post("/api/v1/events", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Event name (required)")
	cmd.Flags().StringVar(&date, "date", "", "Event date, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func newEventGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <event_id>",
		Short: "Get event details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Event

			if err := client.Get(fmt.Sprintf("/api/v1/events/%s", args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newEventListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List events",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.Event

			if err := client.Get("/api/v1/events", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newEligibilityCmd() *cobra.Command {
	var children []string

	cmd := &cobra.Command{
		Use:   "eligibility <event_id>",
		Short: "Check which children need a companion",
		Long: `Evaluate children against the event date.

Each --child is NAME:YYYY-MM-DD, with an optional :atypical suffix.`,
		Example: `  guestdesk eligibility EVT123 --child Lucas:2019-03-02 --child Bia:2021-08-30`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := make([]model.ChildEntry, 0, len(children))
			for _, raw := range children {
				entry, err := parseChildFlag(raw)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
			}

			var result response.Eligibility
			path := fmt.Sprintf("/api/v1/events/%s/eligibility", args[0])
			if err := client.Post(path, request.EligibilityRequest{Children: entries}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&children, "child", nil, "Child as NAME:YYYY-MM-DD[:atypical] (repeatable)")

	return cmd
}

// parseChildFlag parses NAME:YYYY-MM-DD[:atypical]
func parseChildFlag(raw string) (model.ChildEntry, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return model.ChildEntry{}, fmt.Errorf("invalid --child %q: expected NAME:YYYY-MM-DD[:atypical]", raw)
	}

	dob, err := model.ParseDate(parts[1])
	if err != nil {
		return model.ChildEntry{}, fmt.Errorf("invalid --child %q: %w", raw, err)
	}

	entry := model.ChildEntry{Name: parts[0], DateOfBirth: &dob}
	if len(parts) == 3 {
		if parts[2] != "atypical" {
			return model.ChildEntry{}, fmt.Errorf("invalid --child %q: unknown flag %q", raw, parts[2])
		}
		entry.IsAtypical = true
	}
	return entry, nil
}
