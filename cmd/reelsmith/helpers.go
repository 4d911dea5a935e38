package main

import (
	"context"
	"fmt"
	"strings"

	"reelsmith/internal/ipc"
)

// resolveJobUUID expands a job reference into a full UUID. Notifications and
// listings print the first UUID block, so a bare prefix is accepted as long
// as it matches exactly one job.
func resolveJobUUID(ctx context.Context, client *ipc.Client, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("a job id is required")
	}

	jobs, err := client.Jobs(ctx, nil)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, job := range jobs {
		if job.UUID == ref {
			return job.UUID, nil
		}
		if strings.HasPrefix(job.UUID, ref) {
			matches = append(matches, job.UUID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no job matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("job id %q is ambiguous (%d matches)", ref, len(matches))
	}
}
