// Package history records a summary of every sync run in the sync_runs table.
//
// The history is informational. Reconciliation never reads it: links are always
// rediscovered from destination provenance, so losing the table loses nothing
// but the audit trail.
package history
