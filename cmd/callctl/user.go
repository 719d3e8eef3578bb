package main

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(c.newUserToggleCmd("disable", "Soft-disable a user; they can no longer sign in", false))
	cmd.AddCommand(c.newUserToggleCmd("enable", "Re-enable a disabled user", true))
	return cmd
}

func (c *CLI) newUserToggleCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			u, err := be.users.SetActive(cmd.Context(), args[0], active)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.outputJSON(u)
			}
			c.printf("%s %sd (tenant %s)\n", u.Email, use, u.TenantID)
			return nil
		},
	}
}
