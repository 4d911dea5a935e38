package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and job counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Reelsmith Daemon", colorize) {
					fmt.Fprintln(out, line)
				}

				runningKind := statusError
				runningMsg := "not running"
				if status.Running {
					runningKind = statusOK
					runningMsg = fmt.Sprintf("pid %d", status.PID)
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", runningKind, runningMsg, colorize))
				fmt.Fprintln(out, renderStatusLine("Job database", statusInfo, status.JobDBPath, colorize))
				if status.LastError != "" {
					fmt.Fprintln(out, renderStatusLine("Last error", statusWarn, status.LastError, colorize))
				}

				rows := buildJobStatsRows(status.JobStats)
				if len(rows) == 0 {
					fmt.Fprintln(out, "\nNo jobs recorded")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintf(out, "\n%s\n", table)
				return nil
			})
		},
	}
}
