package speech_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reelsmith/internal/services"
	"reelsmith/internal/services/speech"
)

func newTestClient(t *testing.T, handler http.Handler) *speech.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return speech.NewClient(speech.Config{
		APIKey:        "test-key",
		BaseURL:       server.URL,
		RetryAttempts: 3,
	}, speech.WithSleeper(func(time.Duration) {}))
}

func TestSynthesizeWritesAudioFile(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("mp3-bytes"))
	}))

	output := filepath.Join(t.TempDir(), "narration.mp3")
	if err := client.Synthesize(context.Background(), "Hello world.", output); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Fatalf("unexpected audio content %q", data)
	}
	if _, err := os.Stat(output + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}
}

func TestSynthesizeRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	output := filepath.Join(t.TempDir(), "narration.mp3")
	if err := client.Synthesize(context.Background(), "Hello.", output); err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestSynthesizeRequiresText(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	err := client.Synthesize(context.Background(), "  ", "/tmp/out.mp3")
	if err == nil || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTranscribeParsesResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart content type, got %s", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("unexpected model %q", got)
		}
		_, _ = w.Write([]byte(`{"text":" a video about sailing "}`))
	}))

	audioPath := filepath.Join(t.TempDir(), "voice.ogg")
	if err := os.WriteFile(audioPath, []byte("ogg-bytes"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	text, err := client.Transcribe(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "a video about sailing" {
		t.Fatalf("unexpected transcription %q", text)
	}
}

func TestTranscribeRejectsMissingFile(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	_, err := client.Transcribe(context.Background(), "/nowhere/voice.ogg")
	if err == nil || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTranscribeTagsRateLimit(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	audioPath := filepath.Join(t.TempDir(), "voice.ogg")
	if err := os.WriteFile(audioPath, []byte("ogg-bytes"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	_, err := client.Transcribe(context.Background(), audioPath)
	if err == nil || !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected rate-limit error, got %v", err)
	}
}
