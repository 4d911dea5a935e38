package main

import (
	"context"
	"testing"

	"reelsmith/internal/logging"
	"reelsmith/internal/testsupport"
)

func TestBuildDaemonWiresCollaborators(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	d, err := buildDaemon(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("buildDaemon: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("expected daemon to be stopped before Start")
	}
	if status.JobDBPath == "" {
		t.Fatal("expected job database path to be set")
	}
}
