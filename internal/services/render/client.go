package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"reelsmith/internal/services"
)

const (
	defaultTaskTimeout   = 300 * time.Second
	defaultPollInterval  = 5 * time.Second
	defaultRetryAttempts = 2
	defaultRetryDelay    = 2 * time.Second
)

// TaskStatus mirrors the render API's task lifecycle.
type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskRunning   TaskStatus = "RUNNING"
	TaskSucceeded TaskStatus = "SUCCEEDED"
	TaskFailed    TaskStatus = "FAILED"
	TaskCancelled TaskStatus = "CANCELLED"
)

// Config captures the settings for the image generation and animation API.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	TaskTimeout   int
	PollInterval  int
	RetryAttempts int
}

// Client drives the asynchronous render API: submit a task, poll it to
// completion, download the artifact. Downloaded image paths are remembered
// with their remote URLs so animation requests can reference them.
type Client struct {
	cfg          Config
	httpClient   *http.Client
	taskTimeout  time.Duration
	pollInterval time.Duration
	sleeper      func(time.Duration)

	mu        sync.Mutex
	imageURLs map[string]string
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPollInterval overrides the task polling cadence (useful for tests).
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithSleeper overrides how waits are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a render client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	taskTimeout := defaultTaskTimeout
	if cfg.TaskTimeout > 0 {
		taskTimeout = time.Duration(cfg.TaskTimeout) * time.Second
	}
	pollInterval := defaultPollInterval
	if cfg.PollInterval > 0 {
		pollInterval = time.Duration(cfg.PollInterval) * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	client := &Client{
		cfg: Config{
			APIKey:        strings.TrimSpace(cfg.APIKey),
			BaseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:         strings.TrimSpace(cfg.Model),
			TaskTimeout:   cfg.TaskTimeout,
			PollInterval:  cfg.PollInterval,
			RetryAttempts: cfg.RetryAttempts,
		},
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		taskTimeout:  taskTimeout,
		pollInterval: pollInterval,
		imageURLs:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.runwayml.com/v1"
	}
	return client
}

// GenerateImage submits an image task, waits for it, and downloads the still
// to outputPath.
func (c *Client) GenerateImage(ctx context.Context, prompt, outputPath string) error {
	if strings.TrimSpace(prompt) == "" {
		return services.Wrap(services.ErrValidation, "render", "generate image", "prompt required", nil)
	}
	taskID, err := c.createTask(ctx, "/images/generate", map[string]string{
		"prompt": prompt,
		"model":  c.cfg.Model,
	})
	if err != nil {
		return err
	}
	resultURL, err := c.waitForTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := c.download(ctx, resultURL, outputPath); err != nil {
		return err
	}
	c.mu.Lock()
	c.imageURLs[outputPath] = resultURL
	c.mu.Unlock()
	return nil
}

// AnimateImage submits an animation task for a previously generated image and
// downloads the clip to outputPath.
func (c *Client) AnimateImage(ctx context.Context, imagePath, prompt, outputPath string) error {
	c.mu.Lock()
	imageURL, ok := c.imageURLs[imagePath]
	c.mu.Unlock()
	if !ok {
		// Callers may hand over a remote URL directly.
		if strings.HasPrefix(imagePath, "http://") || strings.HasPrefix(imagePath, "https://") {
			imageURL = imagePath
		} else {
			return services.Wrap(services.ErrValidation, "render", "animate image",
				fmt.Sprintf("no remote URL known for image %s", imagePath), nil)
		}
	}
	taskID, err := c.createTask(ctx, "/images/animate", map[string]string{
		"image_url": imageURL,
		"prompt":    prompt,
		"model":     c.cfg.Model,
	})
	if err != nil {
		return err
	}
	resultURL, err := c.waitForTask(ctx, taskID)
	if err != nil {
		return err
	}
	return c.download(ctx, resultURL, outputPath)
}

func (c *Client) createTask(ctx context.Context, path string, payload map[string]string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "render", "create task", "api key required", nil)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("render request: encode body: %w", err)
	}

	attempts := c.cfg.RetryAttempts + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(encoded))
		if err != nil {
			return "", fmt.Errorf("render request: new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("render request: http error: %w", err)
			if ctx.Err() != nil {
				return "", lastErr
			}
			if sleepErr := c.sleep(ctx, defaultRetryDelay); sleepErr != nil {
				return "", sleepErr
			}
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return "", fmt.Errorf("render request: read body: %w", readErr)
		}

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			var task struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(body, &task); err != nil {
				return "", services.Wrap(services.ErrValidation, "render", "create task", "decode response", err)
			}
			if task.ID == "" {
				return "", services.Wrap(services.ErrValidation, "render", "create task", "response missing task id", nil)
			}
			return task.ID, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			delay := defaultRetryDelay
			if parsed, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
				delay = parsed
			}
			lastErr = services.Wrap(services.ErrRateLimited, "render", "create task",
				fmt.Sprintf("http %d", resp.StatusCode), nil)
			if attempt == attempts {
				return "", lastErr
			}
			if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
				return "", sleepErr
			}
		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = services.Wrap(services.ErrTransient, "render", "create task",
				fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
			if attempt == attempts {
				return "", lastErr
			}
			if sleepErr := c.sleep(ctx, defaultRetryDelay); sleepErr != nil {
				return "", sleepErr
			}
		default:
			return "", services.Wrap(services.ErrValidation, "render", "create task",
				fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
		}
	}
	if lastErr == nil {
		lastErr = errors.New("render request: unknown failure")
	}
	return "", lastErr
}

// waitForTask polls the task endpoint until it succeeds, fails, or the task
// timeout elapses.
func (c *Client) waitForTask(ctx context.Context, taskID string) (string, error) {
	deadline := time.Now().Add(c.taskTimeout)
	for {
		status, resultURL, err := c.taskState(ctx, taskID)
		if err != nil {
			return "", err
		}
		switch status {
		case TaskSucceeded:
			if resultURL == "" {
				return "", services.Wrap(services.ErrValidation, "render", "task result", "no result URL in task response", nil)
			}
			return resultURL, nil
		case TaskFailed:
			return "", services.Wrap(services.ErrTransient, "render", "task "+taskID, "task failed", nil)
		case TaskCancelled:
			return "", services.Wrap(services.ErrTransient, "render", "task "+taskID, "task cancelled", nil)
		}
		if !time.Now().Before(deadline) {
			return "", services.Wrap(services.ErrTimeout, "render", "task "+taskID,
				fmt.Sprintf("not finished after %s", c.taskTimeout), nil)
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return "", err
		}
	}
}

func (c *Client) taskState(ctx context.Context, taskID string) (TaskStatus, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/tasks/"+taskID, nil)
	if err != nil {
		return "", "", fmt.Errorf("render status: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", services.Wrap(services.ErrTransient, "render", "task status", "", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("render status: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", services.Wrap(services.ErrTransient, "render", "task status",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	var task struct {
		Status string `json:"status"`
		Output struct {
			URL string `json:"url"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &task); err != nil {
		return "", "", services.Wrap(services.ErrValidation, "render", "task status", "decode response", err)
	}
	status := TaskStatus(strings.ToUpper(strings.TrimSpace(task.Status)))
	switch status {
	case TaskPending, TaskRunning, TaskSucceeded, TaskFailed, TaskCancelled:
	default:
		status = TaskPending
	}
	return status, task.Output.URL, nil
}

func (c *Client) download(ctx context.Context, resultURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return fmt.Errorf("render download: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "render", "download", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransient, "render", "download",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("render download: create %s: %w", outputPath, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = os.Remove(outputPath)
		return fmt.Errorf("render download: write %s: %w", outputPath, err)
	}
	return nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}
