package jobs

import "time"

// Status represents the lifecycle of a job. A running job is pending with a
// live progress string.
type Status string

const (
	StatusPending Status = "pending"
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

// InitialProgress is the progress text of a freshly admitted job.
const InitialProgress = "Queuing your request"

// IsTerminal reports whether no further mutation is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusError || s == StatusSuccess
}

// Job is the polled state of one pipeline run.
type Job struct {
	ID           string    `json:"id"`
	Status       Status    `json:"status"`
	Progress     string    `json:"progress,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	OutputPath   string    `json:"output_path,omitempty"`
	Filename     string    `json:"filename,omitempty"`
	SourceID     string    `json:"source_id,omitempty"`
	SourceURL    string    `json:"source_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// New returns a pending job for the given source URL.
func New(id, sourceURL string, now time.Time) Job {
	return Job{
		ID:        id,
		Status:    StatusPending,
		Progress:  InitialProgress,
		SourceURL: sourceURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
