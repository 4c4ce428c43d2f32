// Command vocalless is the CLI for the vocalless daemon.
//
// "serve" runs the daemon in the foreground. The remaining commands either
// talk to a running daemon over its HTTP API (submit, status, jobs) or work
// directly on local state (config, deps, cache).
package main
