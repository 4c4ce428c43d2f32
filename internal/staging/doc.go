// Package staging reclaims disk space left behind by finished jobs.
//
// Successful jobs have their working directory removed by a reclaim timer.
// Everything else (failed jobs' working directories, which are kept for
// inspection, and published artifacts) is removed by the Sweeper once it is
// older than the configured age.
package staging
