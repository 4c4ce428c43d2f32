package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"vocalless/internal/jobs"
)

// ErrRejected is returned by Submit when the daemon refuses admission.
var ErrRejected = errors.New("submission rejected")

// HTTPDoer describes the HTTP client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a running daemon.
type Client struct {
	baseURL string
	client  HTTPDoer
}

// NewClient returns a client for the daemon listening at bind. A bare
// host:port is treated as http.
func NewClient(bind string, client HTTPDoer) *Client {
	base := strings.TrimRight(strings.TrimSpace(bind), "/")
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{baseURL: base, client: client}
}

// BaseURL returns the daemon root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Submit requests a new job for sourceURL and returns its identifier.
func (c *Client) Submit(ctx context.Context, sourceURL string) (string, error) {
	body, err := json.Marshal(SubmitRequest{YoutubeURL: sourceURL})
	if err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}
	var resp SubmitResponse
	status, raw, err := c.do(ctx, http.MethodPost, PathSubmit, body, &resp)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		var rejected ErrorResponse
		if json.Unmarshal(raw, &rejected) == nil && rejected.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrRejected, rejected.Error)
		}
		return "", fmt.Errorf("%w: daemon returned %d", ErrRejected, status)
	}
	return resp.RequestID, nil
}

// Status fetches a job. Unknown identifiers yield jobs.ErrNotFound.
func (c *Client) Status(ctx context.Context, id string) (jobs.Job, error) {
	var job jobs.Job
	status, _, err := c.do(ctx, http.MethodGet, PathStatus+url.PathEscape(id), nil, &job)
	if err != nil {
		return jobs.Job{}, err
	}
	switch status {
	case http.StatusOK:
		return job, nil
	case http.StatusNotFound:
		return jobs.Job{}, fmt.Errorf("%s: %w", id, jobs.ErrNotFound)
	default:
		return jobs.Job{}, fmt.Errorf("check status returned %d", status)
	}
}

// Jobs lists every tracked job.
func (c *Client) Jobs(ctx context.Context) (JobListResponse, error) {
	var resp JobListResponse
	status, _, err := c.do(ctx, http.MethodGet, PathJobs, nil, &resp)
	if err != nil {
		return JobListResponse{}, err
	}
	if status != http.StatusOK {
		return JobListResponse{}, fmt.Errorf("list jobs returned %d", status)
	}
	return resp, nil
}

// Health fetches the daemon readiness report.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	status, _, err := c.do(ctx, http.MethodGet, PathHealth, nil, &resp)
	if err != nil {
		return HealthResponse{}, err
	}
	if status != http.StatusOK {
		return HealthResponse{}, fmt.Errorf("health returned %d", status)
	}
	return resp, nil
}

// do performs a request and decodes a 200 body into out. The raw body is
// returned for error decoding.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) (int, []byte, error) {
	if c.baseURL == "" {
		return 0, nil, errors.New("daemon address not configured")
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("contact daemon at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusOK && out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, raw, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, raw, nil
}
