// Package pipeline admits vocal removal requests and drives each admitted job
// through the stages on its own goroutine.
//
// Submit performs the admit-or-reject check against the job store, schedules
// the record's eviction, and starts the run. The run re-reads the job between
// stages and stops quietly once the job is terminal or has been evicted. On
// success the instrumental stem is published under the public directory and
// the source's working directory is scheduled for removal.
//
// Errors are recorded according to their class: process failures are already
// on the job (the runner wrote them), invariant violations are recorded with
// their message, and anything else, including panics, becomes a critical
// failure carrying a stack trace.
package pipeline
