package jobs

import "errors"

var (
	// ErrNotFound is returned for identifiers absent from the store, including
	// jobs that have been evicted.
	ErrNotFound = errors.New("job not found")
	// ErrTerminal is returned when a mutation targets a job that already
	// reached error or success.
	ErrTerminal = errors.New("job already finished")
	// ErrDuplicate is returned when creating a job whose identifier exists.
	ErrDuplicate = errors.New("job already exists")
	// ErrCapacity is returned by Admit when the ceiling is reached.
	ErrCapacity = errors.New("too many requests in progress, try again later")

	errMissingID = errors.New("job id is required")
)
