package llm_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reelsmith/internal/services"
	"reelsmith/internal/services/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *llm.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return llm.NewClient(llm.Config{
		APIKey:        "test-key",
		BaseURL:       server.URL,
		Model:         "test-model",
		RetryAttempts: 3,
	}, llm.WithRetryBackoff(time.Millisecond, 5*time.Millisecond), llm.WithSleeper(func(time.Duration) {}))
}

func TestCompleteReturnsContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"A calm sea at dawn."}}]}`))
	})

	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if content != "A calm sea at dawn." {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"recovered"}}]}`))
	})

	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if content != "recovered" {
		t.Fatalf("unexpected content %q", content)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestCompleteTagsRateLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Complete(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected rate-limit classification, got %v", err)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Complete(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation classification, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := llm.NewClient(llm.Config{Model: "test"})
	_, err := client.Complete(context.Background(), "system", "user")
	if err == nil || !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestGenerateScriptBuildsPrompt(t *testing.T) {
	var gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Narration."}}]}`))
	})

	script, err := client.GenerateScript(context.Background(), "electric bicycles", 240)
	if err != nil {
		t.Fatalf("GenerateScript failed: %v", err)
	}
	if script != "Narration." {
		t.Fatalf("unexpected script %q", script)
	}
	// 240 seconds at 150 words per minute is 600 words.
	if !strings.Contains(gotBody, "600 words") || !strings.Contains(gotBody, "electric bicycles") {
		t.Fatalf("unexpected request body %q", gotBody)
	}
}
