package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var audioPath string

	cmd := &cobra.Command{
		Use:   "submit [prompt...]",
		Short: "Submit a new video generation job",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.TrimSpace(strings.Join(args, " "))
			audio := strings.TrimSpace(audioPath)
			if prompt == "" && audio == "" {
				return errors.New("provide a prompt or --audio file")
			}
			if audio != "" {
				expanded, err := filepath.Abs(audio)
				if err != nil {
					return fmt.Errorf("resolve audio path: %w", err)
				}
				if _, err := os.Stat(expanded); err != nil {
					return fmt.Errorf("inspect audio file %q: %w", audio, err)
				}
				audio = expanded
			}

			return ctx.withClient(func(client *ipc.Client) error {
				job, err := client.Submit(cmd.Context(), prompt, audio)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Submitted job %s\n", job.UUID)
				fmt.Fprintf(out, "Prompt: %s\n", job.Prompt)
				fmt.Fprintf(out, "Track it with `reelsmith show %s`\n", shortUUID(job.UUID))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&audioPath, "audio", "", "Audio file to transcribe into the prompt")
	return cmd
}
