package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/guestdesk/internal/api/request"
	"github.com/mcoot/guestdesk/internal/api/response"
)

func newOperatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Operator account commands",
	}

	cmd.AddCommand(newOperatorRegisterCmd())
	cmd.AddCommand(newOperatorLoginCmd())
	cmd.AddCommand(newOperatorLogoutCmd())
	cmd.AddCommand(newOperatorMeCmd())

	return cmd
}

func newOperatorRegisterCmd() *cobra.Command {
	var name, user, pass string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new operator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.RegisterRequest{
				Username:    user,
				Password:    pass,
				DisplayName: name,
			}
			var result response.AuthResponse

			if err := client.Post("/api/v1/operators/register", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to username)")
	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newOperatorLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.LoginRequest{
				Username: user,
				Password: pass,
			}
			var result response.AuthResponse

			if err := client.Post("/api/v1/operators/login", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newOperatorLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/operators/logout", nil, nil); err != nil {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Logged out")
			return nil
		},
	}
}

func newOperatorMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Operator

			if err := client.Get("/api/v1/operators/me", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
