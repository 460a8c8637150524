package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/guestdesk/internal/api/request"
	"github.com/mcoot/guestdesk/internal/api/response"
	"github.com/mcoot/guestdesk/internal/model"
)

func newGuestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guests",
		Short: "Guest list commands",
	}

	cmd.AddCommand(newGuestsListCmd())
	cmd.AddCommand(newGuestsTreeCmd())
	cmd.AddCommand(newGuestsAddCmd())
	cmd.AddCommand(newGuestsRemoveCmd())

	return cmd
}

func newGuestsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <event_id>",
		Short: "List an event's guests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.Guest

			if err := client.Get(fmt.Sprintf("/api/v1/events/%s/guests", args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGuestsTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <event_id>",
		Short: "Show guests grouped under their responsible adults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.GuestNode

			if err := client.Get(fmt.Sprintf("/api/v1/events/%s/guests/tree", args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGuestsAddCmd() *cobra.Command {
	var (
		name, category, phone, dob, responsible string
		atypical                                bool
	)

	cmd := &cobra.Command{
		Use:   "add <event_id>",
		Short: "Register a guest on site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.RegisterGuestRequest{
				DisplayName: name,
				Category:    model.GuestCategory(category),
				Phone:       phone,
				IsAtypical:  atypical,
			}
			if dob != "" {
				d, err := model.ParseDate(dob)
				if err != nil {
					return err
				}
				req.DateOfBirth = &d
			}
			if responsible != "" {
				id := model.GuestID(responsible)
				req.ResponsibleID = &id
			}

			var result response.Guest
			if err := client.Post(fmt.Sprintf("/api/v1/events/%s/guests", args[0]), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&category, "category", string(model.CategoryPayingAdult), "Guest category")
	cmd.Flags().StringVar(&phone, "phone", "", "Contact phone")
	cmd.Flags().StringVar(&dob, "dob", "", "Date of birth, YYYY-MM-DD (required for children)")
	cmd.Flags().StringVar(&responsible, "responsible", "", "ID of the guest responsible for this one")
	cmd.Flags().BoolVar(&atypical, "atypical", false, "Needs a companion regardless of age")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newGuestsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <guest_id>",
		Short: "Remove a guest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(fmt.Sprintf("/api/v1/guests/%s", args[0])); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Guest removed")
			return nil
		},
	}
}
