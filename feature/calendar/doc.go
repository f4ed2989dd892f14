// Package calendar wires the CalDAV to Google reconciliation into the application.
//
// The Service owns one reconcile.Engine and guards it so that only one run is
// applied at a time; a second request while a run is applying fails fast with
// ErrRunInProgress instead of queueing. Every finished run is optionally
// recorded in the history store and archived as a JSON report in object storage.
//
// Routes:
//
//	POST /sync/run    trigger a run (window_days, dry_run, filter)
//	GET  /sync/runs   recorded runs, newest first
//	GET  /sync/links  destination events currently carrying a source uid
package calendar
