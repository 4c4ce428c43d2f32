// Package preflight provides readiness checks for the directories and
// external programs vocalless depends on.
//
// The daemon runs RunAll at startup and logs every failed check as a warning;
// jobs are still admitted so a misconfigured tool surfaces as a job error.
// The CLI "deps" command renders the same results as a table.
package preflight
