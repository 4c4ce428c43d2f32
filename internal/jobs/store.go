package jobs

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Store is the in-memory table of job state. One mutex guards every read and
// write; each operation is a single short critical section.
type Store struct {
	mu   sync.Mutex
	jobs map[string]*Job
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore constructs an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create records a new job.
func (s *Store) Create(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(job)
}

// Admit records job only while fewer than ceiling jobs are tracked. The
// check and the insert happen under the same lock.
func (s *Store) Admit(job Job, ceiling int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) >= ceiling {
		return ErrCapacity
	}
	return s.createLocked(job)
}

func (s *Store) createLocked(job Job) error {
	if strings.TrimSpace(job.ID) == "" {
		return errMissingID
	}
	if _, exists := s.jobs[job.ID]; exists {
		return ErrDuplicate
	}
	if job.Status == "" {
		job.Status = StatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now()
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = job.CreatedAt
	}
	s.jobs[job.ID] = &job
	return nil
}

// Get returns a snapshot of the job.
func (s *Store) Get(id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *job, nil
}

// Update applies fn to a pending job. Terminal jobs are never mutated and
// absent jobs are never recreated.
func (s *Store) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.IsTerminal() {
		return ErrTerminal
	}
	updated := *job
	fn(&updated)
	// The mutator may not change identity or jump to a terminal status;
	// Fail and Succeed own those transitions.
	updated.ID = job.ID
	updated.Status = job.Status
	updated.UpdatedAt = s.now()
	s.jobs[id] = &updated
	return nil
}

// SetProgress overwrites the progress text of a pending job.
func (s *Store) SetProgress(id, progress string) error {
	return s.Update(id, func(j *Job) { j.Progress = progress })
}

// Fail replaces a pending job with a terminal error record. Only the first
// terminal transition wins.
func (s *Store) Fail(id, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.IsTerminal() {
		return ErrTerminal
	}
	s.jobs[id] = &Job{
		ID:           job.ID,
		Status:       StatusError,
		ErrorMessage: message,
		SourceID:     job.SourceID,
		SourceURL:    job.SourceURL,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    s.now(),
	}
	return nil
}

// Succeed marks a pending job successful, setting its artifact fields together.
func (s *Store) Succeed(id, outputPath, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.IsTerminal() {
		return ErrTerminal
	}
	updated := *job
	updated.Status = StatusSuccess
	updated.OutputPath = outputPath
	updated.Filename = filename
	updated.UpdatedAt = s.now()
	s.jobs[id] = &updated
	return nil
}

// Delete removes the job and reports whether it was present.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return false
	}
	delete(s.jobs, id)
	return true
}

// Count returns the number of tracked jobs.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// List returns snapshots of all jobs ordered by creation time.
func (s *Store) List() []Job {
	s.mu.Lock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
