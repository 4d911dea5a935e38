package jobs_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"reelsmith/internal/jobs"
	"reelsmith/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job, err := store.NewJob(ctx, 42, "a day in the life of a lighthouse keeper")
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if job.ID == 0 {
		t.Fatal("expected job ID to be assigned")
	}
	if job.UUID == "" {
		t.Fatal("expected job UUID to be assigned")
	}
	if job.Status != jobs.StatusPending {
		t.Fatalf("expected pending status, got %s", job.Status)
	}

	fetched, err := store.GetByUUID(ctx, job.UUID)
	if err != nil {
		t.Fatalf("GetByUUID failed: %v", err)
	}
	if fetched == nil || fetched.ID != job.ID || fetched.ChatID != 42 {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}
}

func TestNewJobRequiresPrompt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.NewJob(context.Background(), 0, ""); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "city at dawn")
	job.Status = jobs.StatusAwaitingScriptApproval
	job.Script = "Scene one. Scene two."
	job.ScriptDecision = jobs.DecisionApproved
	job.FinalSizeMB = 48.2
	job.SetProgress("Awaiting approval", "Script ready for review", 15)
	completed := time.Now().UTC()
	job.CompletedAt = &completed

	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != jobs.StatusAwaitingScriptApproval {
		t.Fatalf("unexpected status %s", fetched.Status)
	}
	if fetched.Script != job.Script || fetched.ScriptDecision != jobs.DecisionApproved {
		t.Fatalf("script fields lost: %#v", fetched)
	}
	if fetched.ProgressStage != "Awaiting approval" || fetched.ProgressPercent != 15 {
		t.Fatalf("progress fields lost: %#v", fetched)
	}
	if fetched.CompletedAt == nil {
		t.Fatal("completed_at lost")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		testsupport.NewJob(t, store, fmt.Sprintf("prompt %d", i))
	}
	done := testsupport.NewJob(t, store, "finished prompt")
	done.Status = jobs.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	pending, err := store.List(ctx, jobs.StatusPending)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending jobs, got %d", len(pending))
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(all))
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts[jobs.StatusPending] != 3 || counts[jobs.StatusCompleted] != 1 {
		t.Fatalf("unexpected counts: %#v", counts)
	}
}

func TestNextPendingReturnsOldest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewJob(t, store, "first")
	testsupport.NewJob(t, store, "second")

	next, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest pending job, got %#v", next)
	}

	first.Status = jobs.StatusGeneratingScript
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	next, err = store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.Prompt != "second" {
		t.Fatalf("expected second job, got %#v", next)
	}
}

func TestSegmentsRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "segmented prompt")

	segments := make([]*jobs.Segment, 0, 4)
	for i := 0; i < 4; i++ {
		segments = append(segments, &jobs.Segment{
			Index:        i,
			Text:         fmt.Sprintf("sentence %d", i),
			StartSeconds: i * 5,
			EndSeconds:   (i + 1) * 5,
		})
	}
	if err := store.ReplaceSegments(ctx, job.ID, segments); err != nil {
		t.Fatalf("ReplaceSegments failed: %v", err)
	}

	stored, err := store.SegmentsByJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("SegmentsByJob failed: %v", err)
	}
	if len(stored) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(stored))
	}
	for i, segment := range stored {
		if segment.Index != i {
			t.Fatalf("segments out of order: index %d at position %d", segment.Index, i)
		}
		if segment.Status != jobs.SegmentPending {
			t.Fatalf("expected pending segment, got %s", segment.Status)
		}
	}

	stored[2].Status = jobs.SegmentImageReady
	stored[2].ImageFile = "/tmp/seg2.png"
	if err := store.UpdateSegment(ctx, stored[2]); err != nil {
		t.Fatalf("UpdateSegment failed: %v", err)
	}
	refreshed, err := store.SegmentsByJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("SegmentsByJob failed: %v", err)
	}
	if refreshed[2].Status != jobs.SegmentImageReady || refreshed[2].ImageFile != "/tmp/seg2.png" {
		t.Fatalf("segment update lost: %#v", refreshed[2])
	}

	// A second ReplaceSegments wipes the previous set.
	if err := store.ReplaceSegments(ctx, job.ID, segments[:2]); err != nil {
		t.Fatalf("ReplaceSegments failed: %v", err)
	}
	remaining, err := store.SegmentsByJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("SegmentsByJob failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 segments after replace, got %d", len(remaining))
	}
}

func TestDeleteCascadesSegments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "cascade prompt")
	if err := store.ReplaceSegments(ctx, job.ID, []*jobs.Segment{{Index: 0, Text: "solo"}}); err != nil {
		t.Fatalf("ReplaceSegments failed: %v", err)
	}
	if err := store.Delete(ctx, job.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	segments, err := store.SegmentsByJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("SegmentsByJob failed: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected cascade delete, got %d segments", len(segments))
	}
	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched != nil {
		t.Fatalf("expected job removed, got %#v", fetched)
	}
}

func TestUnfinished(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	interrupted := testsupport.NewJob(t, store, "interrupted prompt")
	interrupted.Status = jobs.StatusAnimatingVideos
	interrupted.ScriptDecision = jobs.DecisionApproved
	interrupted.ImagesDecision = jobs.DecisionApproved
	if err := store.Update(ctx, interrupted); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	queued := testsupport.NewJob(t, store, "queued prompt")
	done := testsupport.NewJob(t, store, "done prompt")
	done.Status = jobs.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	unfinished, err := store.Unfinished(ctx)
	if err != nil {
		t.Fatalf("Unfinished failed: %v", err)
	}
	if len(unfinished) != 2 {
		t.Fatalf("expected 2 unfinished jobs, got %d", len(unfinished))
	}
	if unfinished[0].ID != interrupted.ID || unfinished[1].ID != queued.ID {
		t.Fatalf("expected oldest-first ordering, got %d then %d", unfinished[0].ID, unfinished[1].ID)
	}
	if unfinished[0].Status != jobs.StatusAnimatingVideos {
		t.Fatalf("expected persisted stage preserved, got %s", unfinished[0].Status)
	}
	if unfinished[0].ScriptDecision != jobs.DecisionApproved || unfinished[0].ImagesDecision != jobs.DecisionApproved {
		t.Fatalf("expected approvals preserved, got %#v", unfinished[0])
	}
}

func TestFailActive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	active := testsupport.NewJob(t, store, "active prompt")
	active.Status = jobs.StatusGeneratingAudio
	if err := store.Update(ctx, active); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.FailActive(ctx, jobs.DaemonStopReason)
	if err != nil {
		t.Fatalf("FailActive failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 job failed, got %d", count)
	}
	refreshed, err := store.GetByID(ctx, active.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if refreshed.Status != jobs.StatusFailed || refreshed.ErrorMessage != jobs.DaemonStopReason {
		t.Fatalf("unexpected failed job: %#v", refreshed)
	}
}

func TestDeleteCompletedBefore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	old := testsupport.NewJob(t, store, "old prompt")
	old.Status = jobs.StatusCompleted
	if err := store.Update(ctx, old); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	fresh := testsupport.NewJob(t, store, "fresh prompt")

	count, err := store.DeleteCompletedBefore(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteCompletedBefore failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 job deleted, got %d", count)
	}
	remaining, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != fresh.ID {
		t.Fatalf("expected only the pending job to remain: %#v", remaining)
	}
}
