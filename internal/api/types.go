package api

import (
	"vocalless/internal/deps"
	"vocalless/internal/jobs"
	"vocalless/internal/preflight"
)

// Route paths served by the daemon.
const (
	PathSubmit = "/remove-vocals"
	PathStatus = "/check-status/"
	PathJobs   = "/api/jobs"
	PathHealth = "/api/health"
)

// MsgNotFound is the detail returned for unknown or evicted job identifiers.
const MsgNotFound = "Request ID not found"

// SubmitRequest is the body of a submission.
type SubmitRequest struct {
	YoutubeURL string `json:"youtube_url"`
}

// SubmitResponse carries the identifier of an admitted job.
type SubmitResponse struct {
	RequestID string `json:"request_id"`
}

// ErrorResponse reports a rejected submission.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NotFoundResponse reports an unknown job identifier.
type NotFoundResponse struct {
	Detail string `json:"detail"`
}

// JobListResponse lists every tracked job.
type JobListResponse struct {
	Jobs    []jobs.Job `json:"jobs"`
	MaxJobs int        `json:"max_jobs"`
}

// HealthResponse summarizes readiness of the daemon.
type HealthResponse struct {
	Ready        bool               `json:"ready"`
	ActiveJobs   int                `json:"active_jobs"`
	MaxJobs      int                `json:"max_jobs"`
	Checks       []preflight.Result `json:"checks"`
	Dependencies []deps.Status      `json:"dependencies"`
}
