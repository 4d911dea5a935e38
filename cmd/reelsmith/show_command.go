package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show a job's full state and segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				jobUUID, err := resolveJobUUID(cmd.Context(), client, args[0])
				if err != nil {
					return err
				}
				job, err := client.Job(cmd.Context(), jobUUID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job %s\n", job.UUID)
				fmt.Fprintf(out, "Prompt:   %s\n", job.Prompt)
				fmt.Fprintf(out, "Status:   %s\n", formatStatusLabel(job.Status))
				fmt.Fprintf(out, "Progress: %.0f%% (%s)\n", job.Progress.Percent, job.Progress.Message)
				if job.AwaitingStage != "" {
					fmt.Fprintf(out, "Awaiting: %s approval\n", job.AwaitingStage)
				}
				if job.ScriptDecision != "" {
					fmt.Fprintf(out, "Script decision: %s\n", job.ScriptDecision)
				}
				if job.ImagesDecision != "" {
					fmt.Fprintf(out, "Images decision: %s\n", job.ImagesDecision)
				}
				if job.VideosDecision != "" {
					fmt.Fprintf(out, "Videos decision: %s\n", job.VideosDecision)
				}
				if job.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", job.ErrorMessage)
				}
				if job.FinalFile != "" {
					fmt.Fprintf(out, "Final:    %s (%.1f MB, %.0fs)\n", job.FinalFile, job.FinalSizeMB, job.FinalDuration)
				}
				if job.Script != "" {
					fmt.Fprintf(out, "\nScript:\n%s\n", job.Script)
				}
				if len(job.Segments) > 0 {
					table := renderTable(
						[]string{"#", "Window", "Status", "Text"},
						buildSegmentRows(job.Segments),
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
					)
					fmt.Fprintf(out, "\n%s\n", table)
				}
				return nil
			})
		},
	}
}
