// Package jobs holds the in-memory job status table.
//
// The Store is the single source of truth polled by clients and mutated by
// the runner and the pipeline. It enforces the lifecycle rules directly:
// error and success are absorbing, mutations on evicted identifiers fail with
// ErrNotFound instead of recreating records, and Admit performs the capacity
// check and the insert atomically. Nothing here survives a restart.
package jobs
