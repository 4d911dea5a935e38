package jobs_test

import (
	"testing"

	"reelsmith/internal/jobs"
)

func TestSuccessorChainCoversPipeline(t *testing.T) {
	order := []jobs.Status{
		jobs.StatusPending,
		jobs.StatusGeneratingScript,
		jobs.StatusAwaitingScriptApproval,
		jobs.StatusScriptApproved,
		jobs.StatusGeneratingImages,
		jobs.StatusAwaitingImagesApproval,
		jobs.StatusImagesApproved,
		jobs.StatusAnimatingVideos,
		jobs.StatusAwaitingVideosApproval,
		jobs.StatusVideosApproved,
		jobs.StatusGeneratingAudio,
		jobs.StatusAssemblingVideo,
		jobs.StatusCompleted,
	}
	for i := 0; i < len(order)-1; i++ {
		next, ok := jobs.Next(order[i])
		if !ok {
			t.Fatalf("expected successor for %s", order[i])
		}
		if next != order[i+1] {
			t.Fatalf("successor of %s: expected %s, got %s", order[i], order[i+1], next)
		}
	}
	if _, ok := jobs.Next(jobs.StatusCompleted); ok {
		t.Fatal("completed must not have a successor")
	}
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	if jobs.CanTransition(jobs.StatusPending, jobs.StatusGeneratingImages) {
		t.Fatal("skipping stages must be illegal")
	}
	if jobs.CanTransition(jobs.StatusGeneratingImages, jobs.StatusGeneratingScript) {
		t.Fatal("moving backwards must be illegal")
	}
	if jobs.CanTransition(jobs.StatusCompleted, jobs.StatusFailed) {
		t.Fatal("terminal states admit no transitions")
	}
	if jobs.CanTransition(jobs.StatusCancelled, jobs.StatusPending) {
		t.Fatal("terminal states admit no transitions")
	}
}

func TestCanTransitionAllowsTerminalExits(t *testing.T) {
	for _, status := range jobs.AllStatuses() {
		if status.IsTerminal() {
			continue
		}
		if !jobs.CanTransition(status, jobs.StatusFailed) {
			t.Fatalf("%s should be able to fail", status)
		}
		if !jobs.CanTransition(status, jobs.StatusCancelled) {
			t.Fatalf("%s should be able to cancel", status)
		}
	}
}

func TestJobTransition(t *testing.T) {
	job := &jobs.Job{Status: jobs.StatusAwaitingScriptApproval}
	if err := job.Transition(jobs.StatusScriptApproved); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if job.Status != jobs.StatusScriptApproved {
		t.Fatalf("unexpected status %s", job.Status)
	}
	if err := job.Transition(jobs.StatusCompleted); err == nil {
		t.Fatal("expected error for illegal transition")
	}
	if job.Status != jobs.StatusScriptApproved {
		t.Fatalf("status must not change on failed transition, got %s", job.Status)
	}
}

func TestParseStatus(t *testing.T) {
	status, ok := jobs.ParseStatus(" Awaiting_Script_Approval ")
	if !ok || status != jobs.StatusAwaitingScriptApproval {
		t.Fatalf("unexpected parse result: %s %v", status, ok)
	}
	if _, ok := jobs.ParseStatus("rendering"); ok {
		t.Fatal("unknown status must not parse")
	}
	if _, ok := jobs.ParseStatus(""); ok {
		t.Fatal("empty status must not parse")
	}
}
