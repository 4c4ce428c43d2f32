// Package runner executes the external tools used by the pipeline.
//
// A Runner starts one process per call through an Executor, forwards every
// stdout and stderr line into the owning job's progress, and classifies the
// exit. A failed process is the only way a job reaches the error state from
// here: the runner replaces the job record with a terminal error built from
// the captured stderr (falling back to stdout) and returns an error tagged
// with services.ErrExternalTool.
//
// Each process runs in its own process group. Cancelling the context kills
// the group, so helpers forked by a tool die with it.
package runner
