package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/guestdesk/internal/api/response"
)

func newCheckInCmd() *cobra.Command {
	return newAttendanceCmd("checkin", "Check a guest in", "check-in")
}

func newCheckOutCmd() *cobra.Command {
	return newAttendanceCmd("checkout", "Check a guest out", "check-out")
}

// newAttendanceCmd builds checkin and checkout, which differ only in the endpoint
func newAttendanceCmd(use, short, action string) *cobra.Command {
	var group bool

	cmd := &cobra.Command{
		Use:   use + " <guest_id>",
		Short: short,
		Long: short + `.

With --group the whole group the guest belongs to is processed: the responsible adult
first, then every dependent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/guests/%s/%s", args[0], action)
			if group {
				path = fmt.Sprintf("/api/v1/guests/%s/group/%s", args[0], action)
			}

			var result response.GroupResult
			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&group, "group", false, "Process the guest's whole group")

	return cmd
}
