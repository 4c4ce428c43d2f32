// Package daemon coordinates the long-running vocalless process.
//
// It wires configuration, the job store, the source cache, the stage set and
// the pipeline orchestrator into a single lifecycle with flock-based locking
// to prevent multiple instances. Run serves the HTTP API and, when enabled,
// the stale directory sweep under one errgroup; cancelling its context shuts
// both down and kills in-flight tool processes.
//
// Keep orchestration logic here: pipeline steps live in their own packages
// while the daemon focuses on startup, shutdown, and request routing.
package daemon
