package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/internal/services"
)

const (
	defaultHTTPTimeout   = 120 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
	transcriptionModel   = "whisper-1"
)

// Config captures the text-to-speech and transcription API settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Voice          string
	Model          string
	TimeoutSeconds int
	RetryAttempts  int
}

// Client wraps the speech synthesis and transcription endpoints.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleeper    func(time.Duration)
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

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a speech client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Voice:          strings.TrimSpace(cfg.Voice),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
			RetryAttempts:  cfg.RetryAttempts,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.openai.com/v1"
	}
	if client.cfg.Voice == "" {
		client.cfg.Voice = "alloy"
	}
	if client.cfg.Model == "" {
		client.cfg.Model = "tts-1"
	}
	return client
}

// Synthesize renders narration text to an audio file at outputPath.
func (c *Client) Synthesize(ctx context.Context, text, outputPath string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return services.Wrap(services.ErrValidation, "speech", "synthesize", "text required", nil)
	}
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "speech", "synthesize", "api key required", nil)
	}

	payload, err := json.Marshal(map[string]string{
		"model": c.cfg.Model,
		"voice": c.cfg.Voice,
		"input": text,
	})
	if err != nil {
		return fmt.Errorf("speech request: encode body: %w", err)
	}

	body, err := c.postWithRetry(ctx, "/audio/speech", "application/json", func() (io.Reader, error) {
		return bytes.NewReader(payload), nil
	})
	if err != nil {
		return err
	}

	tmpPath := outputPath + ".tmp"
	if err := os.WriteFile(tmpPath, body, 0o644); err != nil {
		return fmt.Errorf("speech request: write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("speech request: place %s: %w", outputPath, err)
	}
	return nil
}

// Transcribe converts an audio file (typically a voice message) to text.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "speech", "transcribe", "api key required", nil)
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "speech", "transcribe", "read audio", err)
	}

	buildBody := func() (io.Reader, string, error) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(audio); err != nil {
			return nil, "", err
		}
		if err := writer.WriteField("model", transcriptionModel); err != nil {
			return nil, "", err
		}
		if err := writer.Close(); err != nil {
			return nil, "", err
		}
		return &buf, writer.FormDataContentType(), nil
	}

	var contentType string
	body, err := c.postWithRetry(ctx, "/audio/transcriptions", "", func() (io.Reader, error) {
		reader, ct, err := buildBody()
		contentType = ct
		return reader, err
	}, func(req *http.Request) {
		req.Header.Set("Content-Type", contentType)
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", services.Wrap(services.ErrValidation, "speech", "transcribe", "decode response", err)
	}
	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return "", services.Wrap(services.ErrValidation, "speech", "transcribe", "empty transcription", nil)
	}
	return text, nil
}

func (c *Client) postWithRetry(ctx context.Context, path, contentType string, makeBody func() (io.Reader, error), reqOpts ...func(*http.Request)) ([]byte, error) {
	attempts := c.cfg.RetryAttempts
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		reader, err := makeBody()
		if err != nil {
			return nil, fmt.Errorf("speech request: build body: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("speech request: new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		for _, opt := range reqOpts {
			opt(req)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = services.Wrap(services.ErrTransient, "speech", "post "+path, "", err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			if sleepErr := c.sleep(ctx, defaultRetryDelay); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("speech request: read body: %w", readErr)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = services.Wrap(services.ErrRateLimited, "speech", "post "+path,
				fmt.Sprintf("http %d", resp.StatusCode), nil)
		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = services.Wrap(services.ErrTransient, "speech", "post "+path,
				fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, services.Wrap(services.ErrConfiguration, "speech", "post "+path, "credentials rejected", nil)
		default:
			return nil, services.Wrap(services.ErrValidation, "speech", "post "+path,
				fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
		}
		if attempt == attempts {
			return nil, lastErr
		}
		if sleepErr := c.sleep(ctx, defaultRetryDelay); sleepErr != nil {
			return nil, sleepErr
		}
	}
	return nil, lastErr
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 || ctx.Err() != nil {
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
