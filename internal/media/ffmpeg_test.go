package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/assembly"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
)

func newTestFFmpeg(t *testing.T) (*FFmpeg, *[][]string) {
	t.Helper()
	cfg := config.Default()
	f := NewFFmpeg(&cfg, logging.NewNop())
	var calls [][]string
	f.WithRunners(
		func(ctx context.Context, name string, args ...string) error {
			calls = append(calls, append([]string{name}, args...))
			return nil
		},
		func(ctx context.Context, name string, args ...string) (string, error) {
			calls = append(calls, append([]string{name}, args...))
			return "240.5\n", nil
		},
	)
	return f, &calls
}

func argsContain(args []string, want ...string) bool {
	joined := " " + strings.Join(args, " ") + " "
	for _, w := range want {
		if !strings.Contains(joined, " "+w+" ") {
			return false
		}
	}
	return true
}

func TestConcatenateWritesFileList(t *testing.T) {
	f, calls := newTestFFmpeg(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "combined.mp4")

	var listContent string
	f.WithRunners(func(ctx context.Context, name string, args ...string) error {
		data, err := os.ReadFile(output + ".filelist.txt")
		if err != nil {
			t.Fatalf("file list missing during run: %v", err)
		}
		listContent = string(data)
		*calls = append(*calls, append([]string{name}, args...))
		return nil
	}, nil)

	clips := []string{filepath.Join(dir, "seg_0.mp4"), filepath.Join(dir, "seg_1.mp4")}
	if err := f.Concatenate(context.Background(), clips, output); err != nil {
		t.Fatalf("Concatenate failed: %v", err)
	}
	if !strings.Contains(listContent, "seg_0.mp4") || !strings.Contains(listContent, "seg_1.mp4") {
		t.Fatalf("unexpected file list: %q", listContent)
	}
	if _, err := os.Stat(output + ".filelist.txt"); !os.IsNotExist(err) {
		t.Fatal("file list should be removed after the run")
	}
	call := (*calls)[0]
	if !argsContain(call, "-f", "concat", "-c", "copy") {
		t.Fatalf("unexpected concat args: %v", call)
	}
}

func TestAdjustTempoUsesFilterChain(t *testing.T) {
	f, calls := newTestFFmpeg(t)
	plan, err := assembly.PlanTempo(10, 4)
	if err != nil {
		t.Fatalf("PlanTempo failed: %v", err)
	}
	if err := f.AdjustTempo(context.Background(), "in.mp3", "out.m4a", plan, 128); err != nil {
		t.Fatalf("AdjustTempo failed: %v", err)
	}
	call := (*calls)[0]
	if !argsContain(call, "-filter:a", plan.FilterChain(), "-b:a", "128k") {
		t.Fatalf("unexpected tempo args: %v", call)
	}
}

func TestMuxAudioCopiesVideoStream(t *testing.T) {
	f, calls := newTestFFmpeg(t)
	if err := f.MuxAudio(context.Background(), "video.mp4", "audio.m4a", "out.mp4", 128); err != nil {
		t.Fatalf("MuxAudio failed: %v", err)
	}
	call := (*calls)[0]
	if !argsContain(call, "-c:v", "copy", "-shortest", "-map", "0:v:0") {
		t.Fatalf("unexpected mux args: %v", call)
	}
}

func TestCompressAppliesPlanBitrate(t *testing.T) {
	f, calls := newTestFFmpeg(t)
	plan, err := assembly.PlanCompression(50, 240, 128, 500)
	if err != nil {
		t.Fatalf("PlanCompression failed: %v", err)
	}
	if err := f.Compress(context.Background(), "in.mp4", "out.mp4", plan); err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	call := (*calls)[0]
	if !argsContain(call, "-b:v", "1578k", "-movflags", "+faststart", "-c:v", "libx264") {
		t.Fatalf("unexpected compress args: %v", call)
	}
}

func TestDurationParsesProbeOutput(t *testing.T) {
	f, _ := newTestFFmpeg(t)
	duration, err := f.Duration(context.Background(), "video.mp4")
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	if duration != 240.5 {
		t.Fatalf("expected 240.5, got %f", duration)
	}
}
