package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
)

func newApproveCommand(ctx *commandContext) *cobra.Command {
	return newDecisionCommand(ctx, "approve", "Approve a job's pending stage")
}

func newRejectCommand(ctx *commandContext) *cobra.Command {
	return newDecisionCommand(ctx, "reject", "Reject a job's pending stage and cancel it")
}

func newDecisionCommand(ctx *commandContext, verb, short string) *cobra.Command {
	var stage string

	cmd := &cobra.Command{
		Use:   verb + " <job-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				jobUUID, err := resolveJobUUID(cmd.Context(), client, args[0])
				if err != nil {
					return err
				}

				decide := client.Approve
				if verb == "reject" {
					decide = client.Reject
				}
				decision, err := decide(cmd.Context(), jobUUID, stage)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for job %s (%s stage)\n",
					decision.Decision, shortUUID(decision.UUID), decision.Stage)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Approval stage (script, images, videos); inferred when omitted")
	return cmd
}
