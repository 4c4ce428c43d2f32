// Package api defines the wire-format types of the vocalless HTTP surface
// and a small client the CLI uses to talk to a running daemon.
//
// The submission and status routes keep the snake_case shapes existing web
// clients expect ("youtube_url", "request_id", "detail"). The supplemental
// /api routes reuse the same job representation.
package api
