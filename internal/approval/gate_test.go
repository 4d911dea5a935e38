package approval_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"reelsmith/internal/approval"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
)

func openTestStore(t *testing.T, ttl time.Duration) *approval.Store {
	t.Helper()
	store, err := approval.OpenPath(filepath.Join(t.TempDir(), "approvals.db"), ttl)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testGate(t *testing.T, store *approval.Store, waitTimeout, pollInterval time.Duration) *approval.Gate {
	t.Helper()
	cfg := config.Default()
	cfg.Approval.WaitTimeout = int(waitTimeout / time.Second)
	cfg.Approval.PollInterval = int(pollInterval / time.Second)
	return approval.NewGate(store, &cfg, logging.NewNop())
}

func TestStorePutGetRoundTrip(t *testing.T) {
	store := openTestStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, 1, approval.StageScript, approval.DecisionApproved); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	decision, ok, err := store.Get(ctx, 1, approval.StageScript)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || decision != approval.DecisionApproved {
		t.Fatalf("unexpected decision: %s %v", decision, ok)
	}

	// Decisions are scoped per stage.
	_, ok, err = store.Get(ctx, 1, approval.StageImages)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Fatal("images stage should have no decision")
	}
}

func TestStoreLastWriteWins(t *testing.T) {
	store := openTestStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, 7, approval.StageVideos, approval.DecisionRejected); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, 7, approval.StageVideos, approval.DecisionApproved); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	decision, ok, err := store.Get(ctx, 7, approval.StageVideos)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || decision != approval.DecisionApproved {
		t.Fatalf("expected later decision to win, got %s %v", decision, ok)
	}
}

func TestStoreRejectsUnknownDecision(t *testing.T) {
	store := openTestStore(t, time.Minute)
	if err := store.Put(context.Background(), 1, approval.StageScript, approval.Decision("maybe")); err == nil {
		t.Fatal("expected error for unknown decision")
	}
}

func TestStoreExpiredDecisionIsAbsent(t *testing.T) {
	store := openTestStore(t, 10*time.Millisecond)
	ctx := context.Background()

	if err := store.Put(ctx, 3, approval.StageScript, approval.DecisionApproved); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	_, ok, err := store.Get(ctx, 3, approval.StageScript)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Fatal("expired decision must read as absent")
	}
}

func TestGateWaitSeesDecision(t *testing.T) {
	store := openTestStore(t, time.Minute)
	gate := testGate(t, store, 5*time.Second, time.Second)
	ctx := context.Background()

	if err := gate.Request(ctx, 11, approval.StageScript); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	done := make(chan approval.Outcome, 1)
	go func() {
		outcome, err := gate.Wait(ctx, 11, approval.StageScript)
		if err != nil {
			t.Errorf("Wait failed: %v", err)
		}
		done <- outcome
	}()

	time.Sleep(50 * time.Millisecond)
	if err := gate.Decide(ctx, 11, approval.StageScript, approval.DecisionApproved); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	select {
	case outcome := <-done:
		if outcome != approval.OutcomeApproved {
			t.Fatalf("expected approved, got %s", outcome)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("gate did not observe the decision")
	}
}

func TestGateWaitReturnsRejection(t *testing.T) {
	store := openTestStore(t, time.Minute)
	gate := testGate(t, store, 5*time.Second, time.Second)
	ctx := context.Background()

	if err := gate.Decide(ctx, 12, approval.StageImages, approval.DecisionRejected); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	outcome, err := gate.Wait(ctx, 12, approval.StageImages)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if outcome != approval.OutcomeRejected {
		t.Fatalf("expected rejected, got %s", outcome)
	}
}

func TestGateRequestClearsStaleDecision(t *testing.T) {
	store := openTestStore(t, time.Minute)
	gate := testGate(t, store, 0, time.Second)
	ctx := context.Background()

	if err := gate.Decide(ctx, 13, approval.StageScript, approval.DecisionApproved); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if err := gate.Request(ctx, 13, approval.StageScript); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	// With a zero wait window, the only possible outcome is a timeout.
	outcome, err := gate.Wait(ctx, 13, approval.StageScript)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if outcome != approval.OutcomeTimedOut {
		t.Fatalf("expected timeout after reset, got %s", outcome)
	}
}

func TestGateWaitTimesOutAfterWindow(t *testing.T) {
	store := openTestStore(t, time.Minute)
	waitTimeout := time.Second
	pollInterval := time.Second
	gate := testGate(t, store, waitTimeout, pollInterval)
	ctx := context.Background()

	if err := gate.Request(ctx, 15, approval.StageVideos); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	start := time.Now()
	outcome, err := gate.Wait(ctx, 15, approval.StageVideos)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if outcome != approval.OutcomeTimedOut {
		t.Fatalf("expected timeout with no decision, got %s", outcome)
	}
	if elapsed < waitTimeout {
		t.Fatalf("wait returned after %s, before the %s window closed", elapsed, waitTimeout)
	}
	// The wait may overshoot by at most one polling cycle.
	if limit := waitTimeout + pollInterval + 500*time.Millisecond; elapsed > limit {
		t.Fatalf("wait took %s, expected at most %s", elapsed, limit)
	}
}

func TestGateWaitHonorsContext(t *testing.T) {
	store := openTestStore(t, time.Minute)
	gate := testGate(t, store, 30*time.Second, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := gate.Wait(ctx, 14, approval.StageVideos)
	if err == nil {
		t.Fatal("expected context error from cancelled wait")
	}
}
