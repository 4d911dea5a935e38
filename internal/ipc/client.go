package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelsmith/internal/api"
)

// Client provides HTTP access to the daemon API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the daemon at the given address. The address may
// be a bare host:port or a full http URL.
func New(addr, token string) *Client {
	addr = strings.TrimSpace(addr)
	if addr != "" && !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return &Client{
		baseURL: strings.TrimRight(addr, "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var resp api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Jobs lists jobs, optionally filtered by status names.
func (c *Client) Jobs(ctx context.Context, statuses []string) ([]api.Job, error) {
	path := "/api/jobs"
	if len(statuses) > 0 {
		query := url.Values{}
		for _, status := range statuses {
			query.Add("status", status)
		}
		path += "?" + query.Encode()
	}
	var resp api.JobListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Job retrieves one job with its segments.
func (c *Client) Job(ctx context.Context, jobUUID string) (*api.Job, error) {
	var resp api.JobResponse
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(jobUUID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// Submit enqueues a new job from a text prompt or audio file path.
func (c *Client) Submit(ctx context.Context, prompt, audioPath string) (*api.Job, error) {
	var resp api.SubmitResponse
	req := api.SubmitRequest{Prompt: prompt, AudioPath: audioPath}
	if err := c.do(ctx, http.MethodPost, "/api/jobs", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// Approve records an approval for the job's awaiting stage. Stage may be
// empty to let the daemon infer it.
func (c *Client) Approve(ctx context.Context, jobUUID, stage string) (*api.DecisionResponse, error) {
	return c.decide(ctx, jobUUID, "approve", stage)
}

// Reject records a rejection for the job's awaiting stage.
func (c *Client) Reject(ctx context.Context, jobUUID, stage string) (*api.DecisionResponse, error) {
	return c.decide(ctx, jobUUID, "reject", stage)
}

func (c *Client) decide(ctx context.Context, jobUUID, action, stage string) (*api.DecisionResponse, error) {
	var resp api.DecisionResponse
	req := api.DecisionRequest{Stage: stage}
	path := "/api/jobs/" + url.PathEscape(jobUUID) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
