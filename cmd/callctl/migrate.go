package main

import (
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMigrateUp(cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and when they were applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMigrateStatus(cmd)
		},
	})
	return cmd
}

func (c *CLI) runMigrateUp(cmd *cobra.Command) error {
	be, err := c.connect(cmd.Context())
	if err != nil {
		return err
	}
	applied, err := be.migrations.Up(cmd.Context())
	if err != nil {
		return err
	}
	if c.jsonOutput {
		return c.outputJSON(map[string]any{"applied": applied})
	}
	if len(applied) == 0 {
		c.printf("database is up to date\n")
		return nil
	}
	for _, name := range applied {
		c.printf("applied %s\n", name)
	}
	return nil
}

func (c *CLI) runMigrateStatus(cmd *cobra.Command) error {
	be, err := c.connect(cmd.Context())
	if err != nil {
		return err
	}
	st, err := be.migrations.Status(cmd.Context())
	if err != nil {
		return err
	}
	if c.jsonOutput {
		return c.outputJSON(st)
	}
	for _, m := range st {
		at := "pending"
		if m.AppliedAt != nil {
			at = m.AppliedAt.UTC().Format(time.RFC3339)
		}
		c.printf("%-8s %-40s %s\n", m.Version, m.Name, at)
	}
	return nil
}
