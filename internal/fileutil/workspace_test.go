package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelsmith/internal/config"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	return NewWorkspace(&cfg)
}

func TestEnsureJobDirsCreatesTree(t *testing.T) {
	ws := newTestWorkspace(t)
	jobDir, err := ws.EnsureJobDirs("abc-123")
	if err != nil {
		t.Fatal(err)
	}
	if jobDir != ws.JobDir("abc-123") {
		t.Fatalf("unexpected job dir: %s", jobDir)
	}
	for _, dir := range []string{ws.ImagesDir("abc-123"), ws.VideosDir("abc-123"), ws.AudioDir("abc-123")} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", dir)
		}
	}
}

func TestEnsureJobDirsRejectsEmptyUUID(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := ws.EnsureJobDirs("  "); err == nil {
		t.Fatal("expected error for empty uuid")
	}
}

func TestDeliverCopiesFinalVideo(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := ws.EnsureJobDirs("abc-123"); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(ws.JobDir("abc-123"), "final.mp4")
	if err := os.WriteFile(src, []byte("video bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	final, err := ws.Deliver("abc-123", src)
	if err != nil {
		t.Fatal(err)
	}
	if final != ws.FinalPath("abc-123") {
		t.Fatalf("unexpected final path: %s", final)
	}
	got, err := os.ReadFile(final)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "video bytes" {
		t.Fatalf("content mismatch: %q", got)
	}
}

func TestRemoveJobDirLeavesOutput(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := ws.EnsureJobDirs("abc-123"); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(ws.JobDir("abc-123"), "final.mp4")
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Deliver("abc-123", src); err != nil {
		t.Fatal(err)
	}

	if err := ws.RemoveJobDir("abc-123"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(ws.JobDir("abc-123")); !os.IsNotExist(err) {
		t.Fatalf("expected job dir removed, got %v", err)
	}
	if _, err := os.Stat(ws.FinalPath("abc-123")); err != nil {
		t.Fatalf("expected delivered video to survive cleanup: %v", err)
	}
}

func TestRemoveJobDirMissingIsNoError(t *testing.T) {
	ws := newTestWorkspace(t)
	if err := ws.RemoveJobDir("never-created"); err != nil {
		t.Fatal(err)
	}
}

func TestSweepStaleRemovesOldJobDirs(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := ws.EnsureJobDirs("old-job"); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.EnsureJobDirs("fresh-job"); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(ws.JobDir("old-job"), stale, stale); err != nil {
		t.Fatal(err)
	}

	removed, err := ws.SweepStale(24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := os.Stat(ws.JobDir("old-job")); !os.IsNotExist(err) {
		t.Fatal("expected stale dir removed")
	}
	if _, err := os.Stat(ws.JobDir("fresh-job")); err != nil {
		t.Fatalf("expected fresh dir kept: %v", err)
	}
}

func TestSweepStaleMissingRootIsNoError(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(t.TempDir(), "missing")
	ws := NewWorkspace(&cfg)
	removed, err := ws.SweepStale(time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 removed, got %d", removed)
	}
}
