package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// CalendarEvent is the normalized representation of one source occurrence.
type CalendarEvent struct {
	// UID is the stable identifier assigned by the source system.
	// It must be non-empty and is expected to be unique within one fetch.
	UID string `json:"uid"`

	// Summary is the event title.
	Summary string `json:"summary"`

	// Description is the free-text body of the event.
	Description string `json:"description,omitempty"`

	// Location is the free-text location of the event.
	Location string `json:"location,omitempty"`

	// Start is the UTC-normalized start instant.
	Start time.Time `json:"start"`

	// End is the UTC-normalized end instant. End is never before Start.
	End time.Time `json:"end"`

	// AllDay marks date-only events.
	AllDay bool `json:"all_day,omitempty"`

	// LastModified is informational only and never used for decisions.
	LastModified time.Time `json:"last_modified,omitempty"`

	// Status is the opaque lifecycle tag reported by the source (e.g. CONFIRMED).
	Status string `json:"status,omitempty"`

	// Source identifies the origin system. Set by the adapter that produced the event.
	Source string `json:"source"`
}

// ContentHash returns a stable digest of the fields that are pushed to the destination.
// Source, Status and LastModified are excluded so that only visible content counts.
func (e CalendarEvent) ContentHash() string {
	h := sha256.New()
	for _, part := range []string{
		e.UID,
		e.Summary,
		e.Description,
		e.Location,
		e.Start.UTC().Format(time.RFC3339),
		e.End.UTC().Format(time.RFC3339),
		boolString(e.AllDay),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Matches reports whether filter is a case-insensitive substring of the
// summary, description or location. An empty filter matches everything.
func (e CalendarEvent) Matches(filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	needle := strings.ToLower(filter)
	return strings.Contains(strings.ToLower(e.Summary), needle) ||
		strings.Contains(strings.ToLower(e.Description), needle) ||
		strings.Contains(strings.ToLower(e.Location), needle)
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Link associates a source uid with the destination event carrying it.
// Links are discovered from destination provenance metadata at the start of every run.
type Link struct {
	// SourceUID is the uid stamped on the destination event.
	SourceUID string `json:"source_uid" yaml:"source_uid"`

	// DestinationID is the destination event identifier.
	DestinationID string `json:"destination_id" yaml:"destination_id"`

	// ContentHash is the hash stamped at the last create/update, if any.
	ContentHash string `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`

	// LastSynced is the last-synced stamp recorded on the destination event.
	LastSynced time.Time `json:"last_synced,omitempty" yaml:"last_synced,omitempty"`

	// Duplicates lists further destination events carrying the same uid.
	// They violate the one-carrier-per-uid invariant and are planned for deletion.
	Duplicates []string `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
}

// Links maps source uid to its link.
type Links map[string]Link

// Window is the half-open time range [Start, End) a run covers.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ActionType represents the type of destination mutation.
type ActionType string

const (
	// ActionCreate creates a destination event for an unlinked source uid.
	ActionCreate ActionType = "create"
	// ActionUpdate pushes the source event onto its linked destination event.
	ActionUpdate ActionType = "update"
	// ActionDelete removes a destination event whose source uid disappeared.
	ActionDelete ActionType = "delete"
	// ActionSkip records a linked event whose content hash is unchanged.
	// Only planned when change detection is enabled.
	ActionSkip ActionType = "skip"
)

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// SourceUID is the source identity the action concerns.
	SourceUID string `json:"source_uid"`

	// DestinationID is the linked destination event. Empty for creates.
	DestinationID string `json:"destination_id,omitempty"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`

	// Event is the source event to push. Nil for deletes.
	Event *CalendarEvent `json:"-"`
}

// Mutates reports whether executing the action calls a mutating adapter method.
func (a Action) Mutates() bool {
	return a.Type == ActionCreate || a.Type == ActionUpdate || a.Type == ActionDelete
}

// Plan contains the decisions computed for one run.
type Plan struct {
	// Actions are ordered: source order for create/update/skip, then deletes sorted by uid.
	Actions []Action `json:"actions"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`

	// Rejected lists source events dropped before planning, such as events without a uid.
	Rejected []string `json:"rejected,omitempty"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// Processed counts source events examined, duplicates included.
	Processed int `json:"processed"`

	// Creates counts planned create actions.
	Creates int `json:"creates"`

	// Updates counts planned update actions.
	Updates int `json:"updates"`

	// Deletes counts planned delete actions, duplicate carriers included.
	Deletes int `json:"deletes"`

	// Unchanged counts linked events skipped by change detection.
	Unchanged int `json:"unchanged"`

	// DuplicateUIDs counts source events whose uid appeared earlier in the same fetch.
	DuplicateUIDs int `json:"duplicate_uids"`
}

// PlanOptions controls planning.
type PlanOptions struct {
	// SkipUnchanged enables content-hash change detection. Linked events whose
	// stamped hash equals the current hash are planned as ActionSkip.
	SkipUnchanged bool
}

// RunOptions controls one reconciliation run.
type RunOptions struct {
	// Window is the time range fetched from the source and scanned for links.
	Window Window

	// DryRun computes and reports decisions without calling mutating adapter methods.
	DryRun bool

	// Filter is the optional text predicate passed to the source adapter.
	Filter string
}

// SyncResult accumulates the outcome of one run.
type SyncResult struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Processed counts source events examined.
	Processed int `json:"processed"`

	// Created, Updated and Deleted count successful (or, in dry-run, would-be) mutations.
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`

	// Unchanged counts linked events skipped by change detection.
	Unchanged int `json:"unchanged"`

	// Deferred counts actions not dispatched because the run was cancelled.
	Deferred int `json:"deferred"`

	// Errors lists run-level and per-item failures in plan order.
	Errors []string `json:"errors"`

	// DryRun is true when no mutation was applied.
	DryRun bool `json:"dry_run"`

	// Window is the range the run covered.
	Window Window `json:"window"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Failed reports whether the run recorded any error.
func (r *SyncResult) Failed() bool {
	return len(r.Errors) > 0
}

// Duration returns the wall time of the run.
func (r *SyncResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
