// Package ytdl builds youtube-dl invocations for source lookup and audio
// download. Execution is left to the runner so progress lines reach the job.
package ytdl
