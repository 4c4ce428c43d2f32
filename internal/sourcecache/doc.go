// Package sourcecache persists the mapping from a submitted URL to the source
// identifier the downloader resolved for it.
//
// The cache backs the lookup stage's skip probe: a URL seen before resolves
// without launching the downloader, so a resubmission finds every working
// directory already populated and skips straight to finalization. Entries
// live in a small SQLite database (WAL mode) under the state directory. Job
// state is never stored here.
//
// A Cache opened with an empty path is inert: lookups miss and writes are
// dropped.
package sourcecache
