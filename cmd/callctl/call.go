package main

import (
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/store"

	"github.com/spf13/cobra"
)

func (c *CLI) newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Inspect calls",
	}

	var tenant string
	show := &cobra.Command{
		Use:   "show <call-id>",
		Short: "Print a single call of a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := store.NewScope(tenant, "")
			if err != nil {
				return apperr.Validation("tenant", "--tenant must be a tenant UUID")
			}
			be, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			call, err := be.calls.Get(cmd.Context(), sc, args[0])
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.outputJSON(call)
			}
			c.printf("id:          %s\n", call.ID)
			c.printf("lead:        %s\n", call.LeadID)
			if call.CampaignID != nil {
				c.printf("campaign:    %s\n", *call.CampaignID)
			}
			c.printf("status:      %s\n", call.Status)
			if call.Outcome != "" {
				c.printf("outcome:     %s\n", call.Outcome)
			}
			if call.ExternalCallID != nil {
				c.printf("external id: %s\n", *call.ExternalCallID)
			}
			c.printf("duration:    %ds\n", call.DurationSeconds)
			c.printf("cost:        %d\n", call.CostMinor)
			c.printf("created:     %s\n", call.CreatedAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	show.Flags().StringVar(&tenant, "tenant", "", "tenant id owning the call")
	_ = show.MarkFlagRequired("tenant")

	cmd.AddCommand(show)
	return cmd
}
