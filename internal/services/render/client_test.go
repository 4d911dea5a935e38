package render_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"reelsmith/internal/services"
	"reelsmith/internal/services/render"
)

type fakeRenderAPI struct {
	polls       atomic.Int32
	pollsBefore int32
	failTask    bool
	rateLimits  int32
	server      *httptest.Server
}

func newFakeRenderAPI(t *testing.T) *fakeRenderAPI {
	t.Helper()
	api := &fakeRenderAPI{pollsBefore: 1}
	mux := http.NewServeMux()
	mux.HandleFunc("/images/generate", api.handleCreate)
	mux.HandleFunc("/images/animate", api.handleCreate)
	mux.HandleFunc("/tasks/", api.handleTask)
	mux.HandleFunc("/result.bin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("artifact-bytes"))
	})
	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeRenderAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	if atomic.AddInt32(&a.rateLimits, -1) >= 0 {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"id": "task-1"})
}

func (a *fakeRenderAPI) handleTask(w http.ResponseWriter, r *http.Request) {
	polls := a.polls.Add(1)
	status := "RUNNING"
	var output map[string]string
	if polls > a.pollsBefore {
		if a.failTask {
			status = "FAILED"
		} else {
			status = "SUCCEEDED"
			output = map[string]string{"url": a.server.URL + "/result.bin"}
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "output": output})
}

func newTestClient(t *testing.T, api *fakeRenderAPI) *render.Client {
	t.Helper()
	return render.NewClient(render.Config{
		APIKey:        "test-key",
		BaseURL:       api.server.URL,
		Model:         "gen3",
		TaskTimeout:   5,
		RetryAttempts: 2,
	}, render.WithPollInterval(time.Millisecond), render.WithSleeper(func(time.Duration) {}))
}

func TestGenerateImageDownloadsArtifact(t *testing.T) {
	api := newFakeRenderAPI(t)
	client := newTestClient(t, api)

	output := filepath.Join(t.TempDir(), "seg_000.png")
	if err := client.GenerateImage(context.Background(), "a red bicycle", output); err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "artifact-bytes" {
		t.Fatalf("unexpected artifact %q", data)
	}
}

func TestAnimateImageUsesRememberedURL(t *testing.T) {
	api := newFakeRenderAPI(t)
	client := newTestClient(t, api)

	dir := t.TempDir()
	image := filepath.Join(dir, "seg_000.png")
	if err := client.GenerateImage(context.Background(), "a red bicycle", image); err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}

	api.polls.Store(0)
	clip := filepath.Join(dir, "seg_000.mp4")
	if err := client.AnimateImage(context.Background(), image, "smooth cinematic motion", clip); err != nil {
		t.Fatalf("AnimateImage failed: %v", err)
	}
	if _, err := os.Stat(clip); err != nil {
		t.Fatalf("clip missing: %v", err)
	}
}

func TestAnimateImageRejectsUnknownLocalPath(t *testing.T) {
	api := newFakeRenderAPI(t)
	client := newTestClient(t, api)

	err := client.AnimateImage(context.Background(), "/nowhere/seg.png", "motion", "/tmp/out.mp4")
	if err == nil || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateImageRetriesRateLimit(t *testing.T) {
	api := newFakeRenderAPI(t)
	atomic.StoreInt32(&api.rateLimits, 1)
	client := newTestClient(t, api)

	output := filepath.Join(t.TempDir(), "seg_000.png")
	if err := client.GenerateImage(context.Background(), "a red bicycle", output); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestGenerateImageSurfacesTaskFailure(t *testing.T) {
	api := newFakeRenderAPI(t)
	api.failTask = true
	client := newTestClient(t, api)

	err := client.GenerateImage(context.Background(), "a red bicycle", filepath.Join(t.TempDir(), "out.png"))
	if err == nil || !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error for failed task, got %v", err)
	}
}

func TestGenerateImageTimesOut(t *testing.T) {
	api := newFakeRenderAPI(t)
	api.pollsBefore = 1 << 30
	client := render.NewClient(render.Config{
		APIKey:      "test-key",
		BaseURL:     api.server.URL,
		Model:       "gen3",
		TaskTimeout: 1,
	}, render.WithPollInterval(10*time.Millisecond))

	err := client.GenerateImage(context.Background(), "a red bicycle", filepath.Join(t.TempDir(), "out.png"))
	if err == nil || !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestGenerateImageRequiresPrompt(t *testing.T) {
	api := newFakeRenderAPI(t)
	client := newTestClient(t, api)
	err := client.GenerateImage(context.Background(), "  ", "/tmp/out.png")
	if err == nil || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
