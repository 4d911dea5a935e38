package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/internal/config"
)

const userAgent = "Reelsmith-Go/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyJobStarted(ctx context.Context, jobID, prompt string) error
	NotifyScriptReady(ctx context.Context, jobID, script string) error
	NotifyApprovalNeeded(ctx context.Context, jobID, stage string) error
	NotifyPreviewReady(ctx context.Context, jobID, kind string, files []string) error
	NotifyJobCompleted(ctx context.Context, jobID, finalFile string, sizeMB, durationSeconds float64) error
	NotifyJobCancelled(ctx context.Context, jobID, stage string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyJobStarted(ctx context.Context, jobID, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if len(prompt) > 120 {
		prompt = prompt[:120] + "..."
	}
	data := payload{
		title:   "Reelsmith - Job Started",
		message: fmt.Sprintf("🎬 Started job %s: %s", shortID(jobID), prompt),
		tags:    []string{"reelsmith", "job", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyScriptReady(ctx context.Context, jobID, script string) error {
	script = strings.TrimSpace(script)
	if len(script) > 500 {
		script = script[:500] + "..."
	}
	data := payload{
		title:   "Reelsmith - Script Ready",
		message: fmt.Sprintf("📝 Script for job %s:\n%s", shortID(jobID), script),
		tags:    []string{"reelsmith", "script", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyApprovalNeeded(ctx context.Context, jobID, stage string) error {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		stage = "unknown"
	}
	data := payload{
		title: "Reelsmith - Approval Needed",
		message: fmt.Sprintf("⏸️ Job %s is waiting on %s approval\nApprove: reelsmith approve %s\nReject: reelsmith reject %s",
			shortID(jobID), stage, shortID(jobID), shortID(jobID)),
		tags:     []string{"reelsmith", "approval", stage},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPreviewReady(ctx context.Context, jobID, kind string, files []string) error {
	kind = strings.TrimSpace(kind)
	names := make([]string, 0, len(files))
	for _, f := range files {
		if f = strings.TrimSpace(f); f != "" {
			names = append(names, filepath.Base(f))
		}
	}
	message := fmt.Sprintf("🖼️ %d %s previews ready for job %s", len(names), kind, shortID(jobID))
	if len(names) > 0 {
		message = fmt.Sprintf("%s\n%s", message, strings.Join(names, "\n"))
	}
	data := payload{
		title:   "Reelsmith - Previews Ready",
		message: message,
		tags:    []string{"reelsmith", "preview", kind},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, jobID, finalFile string, sizeMB, durationSeconds float64) error {
	finalFile = strings.TrimSpace(finalFile)
	message := fmt.Sprintf("✅ Job %s complete: %.1f MB, %.0fs", shortID(jobID), sizeMB, durationSeconds)
	if finalFile != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, finalFile)
	}
	data := payload{
		title:    "Reelsmith - Video Ready",
		message:  message,
		tags:     []string{"reelsmith", "job", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCancelled(ctx context.Context, jobID, stage string) error {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		stage = "unknown"
	}
	data := payload{
		title:   "Reelsmith - Job Cancelled",
		message: fmt.Sprintf("🚫 Job %s cancelled at %s", shortID(jobID), stage),
		tags:    []string{"reelsmith", "job", "cancelled"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Reelsmith - Error",
		message:  builder.String(),
		tags:     []string{"reelsmith", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelsmith - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"reelsmith", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

// shortID trims a UUID down to its first block for readable messages.
func shortID(jobID string) string {
	jobID = strings.TrimSpace(jobID)
	if idx := strings.IndexByte(jobID, '-'); idx > 0 {
		return jobID[:idx]
	}
	return jobID
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobStarted(context.Context, string, string) error     { return nil }
func (noopService) NotifyScriptReady(context.Context, string, string) error    { return nil }
func (noopService) NotifyApprovalNeeded(context.Context, string, string) error { return nil }
func (noopService) NotifyPreviewReady(context.Context, string, string, []string) error {
	return nil
}
func (noopService) NotifyJobCompleted(context.Context, string, string, float64, float64) error {
	return nil
}
func (noopService) NotifyJobCancelled(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error         { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
