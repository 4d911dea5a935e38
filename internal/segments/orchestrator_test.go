package segments_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
	"reelsmith/internal/segments"
	"reelsmith/internal/services"
)

type fakeRenderer struct {
	mu          sync.Mutex
	inFlight    int32
	maxInFlight int32
	failIndexes map[int]bool
	delay       time.Duration
}

func (f *fakeRenderer) track() func() {
	current := atomic.AddInt32(&f.inFlight, 1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if current <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, current) {
			break
		}
	}
	return func() { atomic.AddInt32(&f.inFlight, -1) }
}

func (f *fakeRenderer) shouldFail(output string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for idx := range f.failIndexes {
		if output == segments.ImagePath("/tmp/job", idx) || output == segments.ClipPath("/tmp/job", idx) {
			return true
		}
	}
	return false
}

func (f *fakeRenderer) GenerateImage(ctx context.Context, prompt, outputPath string) error {
	defer f.track()()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.shouldFail(outputPath) {
		return errors.New("render backend unavailable")
	}
	return nil
}

func (f *fakeRenderer) AnimateImage(ctx context.Context, imagePath, prompt, outputPath string) error {
	defer f.track()()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.shouldFail(outputPath) {
		return errors.New("render backend unavailable")
	}
	return nil
}

type memorySegmentStore struct {
	mu      sync.Mutex
	updates int
}

func (m *memorySegmentStore) UpdateSegment(ctx context.Context, segment *jobs.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	return nil
}

func makeSegments(n int) []*jobs.Segment {
	segs := make([]*jobs.Segment, 0, n)
	for i := 0; i < n; i++ {
		segs = append(segs, &jobs.Segment{
			Index:           i,
			Text:            fmt.Sprintf("segment %d", i),
			ImagePrompt:     fmt.Sprintf("image %d", i),
			AnimationPrompt: fmt.Sprintf("motion %d", i),
			Status:          jobs.SegmentPending,
		})
	}
	return segs
}

func newOrchestrator(renderer segments.Renderer, store segments.Store) *segments.Orchestrator {
	cfg := config.Default()
	return segments.NewOrchestrator(renderer, store, &cfg, logging.NewNop())
}

func TestGenerateImagesBoundsConcurrency(t *testing.T) {
	renderer := &fakeRenderer{delay: 10 * time.Millisecond}
	store := &memorySegmentStore{}
	orch := newOrchestrator(renderer, store)

	segs := makeSegments(12)
	if err := orch.GenerateImages(context.Background(), segs, "/tmp/job", nil); err != nil {
		t.Fatalf("GenerateImages failed: %v", err)
	}
	if max := atomic.LoadInt32(&renderer.maxInFlight); max > 3 {
		t.Fatalf("worker pool exceeded bound: %d in flight", max)
	}
	for _, segment := range segs {
		if segment.Status != jobs.SegmentImageReady {
			t.Fatalf("segment %d not image-ready: %s", segment.Index, segment.Status)
		}
		if segment.ImageFile == "" {
			t.Fatalf("segment %d missing image path", segment.Index)
		}
	}
	if store.updates != 12 {
		t.Fatalf("expected 12 persisted updates, got %d", store.updates)
	}
}

func TestBatchToleratesFailuresUnderThreshold(t *testing.T) {
	// 9 failures out of 48 is 18.75%, under the 20% threshold.
	failures := map[int]bool{}
	for i := 0; i < 9; i++ {
		failures[i*5] = true
	}
	renderer := &fakeRenderer{failIndexes: failures}
	orch := newOrchestrator(renderer, &memorySegmentStore{})

	segs := makeSegments(48)
	if err := orch.GenerateImages(context.Background(), segs, "/tmp/job", nil); err != nil {
		t.Fatalf("expected batch to tolerate 9 failures, got %v", err)
	}
	failed := 0
	for _, segment := range segs {
		if segment.Status == jobs.SegmentFailed {
			failed++
			if segment.ErrorMessage == "" {
				t.Fatalf("failed segment %d missing error message", segment.Index)
			}
		}
	}
	if failed != 9 {
		t.Fatalf("expected 9 failed segments, got %d", failed)
	}
}

func TestBatchFailsOverThreshold(t *testing.T) {
	// 10 failures out of 48 is 20.8%, above the 20% threshold.
	failures := map[int]bool{}
	for i := 0; i < 10; i++ {
		failures[i*4] = true
	}
	renderer := &fakeRenderer{failIndexes: failures}
	orch := newOrchestrator(renderer, &memorySegmentStore{})

	err := orch.GenerateImages(context.Background(), makeSegments(48), "/tmp/job", nil)
	if err == nil {
		t.Fatal("expected batch failure over threshold")
	}
	if !errors.Is(err, services.ErrBatchFailure) {
		t.Fatalf("expected batch-failure error, got %v", err)
	}
	if errors.Is(err, services.ErrAssembly) {
		t.Fatalf("batch threshold must not classify as an assembly error, got %v", err)
	}
}

func TestAnimateSkipsFailedSegments(t *testing.T) {
	renderer := &fakeRenderer{}
	orch := newOrchestrator(renderer, &memorySegmentStore{})

	segs := makeSegments(6)
	for _, segment := range segs {
		segment.Status = jobs.SegmentImageReady
		segment.ImageFile = segments.ImagePath("/tmp/job", segment.Index)
	}
	segs[2].Status = jobs.SegmentFailed
	segs[2].ImageFile = ""

	if err := orch.AnimateImages(context.Background(), segs, "/tmp/job", nil); err != nil {
		t.Fatalf("AnimateImages failed: %v", err)
	}
	for i, segment := range segs {
		if i == 2 {
			if segment.Status != jobs.SegmentFailed {
				t.Fatalf("failed segment must stay failed, got %s", segment.Status)
			}
			continue
		}
		if segment.Status != jobs.SegmentVideoReady {
			t.Fatalf("segment %d not video-ready: %s", segment.Index, segment.Status)
		}
	}
}

func TestCompletedClipsSortedByIndex(t *testing.T) {
	segs := []*jobs.Segment{
		{Index: 2, Status: jobs.SegmentVideoReady, VideoFile: segments.ClipPath("/tmp/job", 2)},
		{Index: 0, Status: jobs.SegmentVideoReady, VideoFile: segments.ClipPath("/tmp/job", 0)},
		{Index: 1, Status: jobs.SegmentFailed},
		{Index: 3, Status: jobs.SegmentVideoReady, VideoFile: segments.ClipPath("/tmp/job", 3)},
	}
	clips := segments.CompletedClips(segs)
	expected := []string{
		segments.ClipPath("/tmp/job", 0),
		segments.ClipPath("/tmp/job", 2),
		segments.ClipPath("/tmp/job", 3),
	}
	if len(clips) != len(expected) {
		t.Fatalf("expected %d clips, got %d", len(expected), len(clips))
	}
	for i := range expected {
		if clips[i] != expected[i] {
			t.Fatalf("clip %d: expected %s, got %s", i, expected[i], clips[i])
		}
	}
}

func TestProgressReporting(t *testing.T) {
	renderer := &fakeRenderer{}
	orch := newOrchestrator(renderer, &memorySegmentStore{})

	var mu sync.Mutex
	var reports [][2]int
	progress := func(done, total int) {
		mu.Lock()
		reports = append(reports, [2]int{done, total})
		mu.Unlock()
	}

	if err := orch.GenerateImages(context.Background(), makeSegments(12), "/tmp/job", progress); err != nil {
		t.Fatalf("GenerateImages failed: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(reports) == 0 {
		t.Fatal("expected progress reports")
	}
	sawFinal := false
	for _, report := range reports {
		if report[1] != 12 {
			t.Fatalf("unexpected total %d", report[1])
		}
		if report[0] == 12 {
			sawFinal = true
		}
	}
	if !sawFinal {
		t.Fatal("expected a final 12/12 report")
	}
}

func TestEmptyBatchIsValidationError(t *testing.T) {
	orch := newOrchestrator(&fakeRenderer{}, &memorySegmentStore{})
	err := orch.GenerateImages(context.Background(), nil, "/tmp/job", nil)
	if err == nil || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
