// Package reclaim schedules delayed cleanup work: evicting job records from
// the store and deleting working directories once a job has succeeded.
//
// Timers are plain time.AfterFunc handles grouped by key. Nothing in the
// pipeline cancels them; StopAll exists for shutdown and tests.
package reclaim
