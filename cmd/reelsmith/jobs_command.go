package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List video generation jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				jobs, err := client.Jobs(cmd.Context(), listStatuses)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs found")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Prompt", "Status", "Progress", "Created"},
					buildJobListRows(jobs),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by job status (repeatable)")
	return cmd
}
