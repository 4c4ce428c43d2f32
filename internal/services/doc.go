// Package services defines shared utilities consumed by the pipeline stages
// and the external tool wrappers.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper, and Classify which maps
//     a failure onto the pipeline's failure kinds.
//
// Subpackages build argument lists for the external tools (ytdl, ffmpeg,
// separator) so the command shapes live in one place.
package services
