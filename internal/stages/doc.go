// Package stages implements the four pipeline steps: source lookup, audio
// download, WAV transcode, and vocal separation.
//
// Every stage first probes its output directory (or, for lookup, the source
// cache) and skips the external process when earlier work is already on
// disk. Process failures are recorded on the job by the runner; the stage
// only adds the post-condition checks that turn a missing or ambiguous
// output into a services.ErrValidation error carrying the user-facing
// message.
package stages
