package history

import (
	"encoding/json"
	"time"

	"calsync/core/reconcile"
)

// SyncRun represents the 'sync_runs' table. One row is written per run, dry runs included.
type SyncRun struct {
	ID          uint      `gorm:"primaryKey;column:id" json:"-"`
	RunID       string    `gorm:"column:run_id;type:varchar(36);uniqueIndex" json:"run_id"`
	Trigger     string    `gorm:"column:trigger_source;type:varchar(16)" json:"trigger"`
	DryRun      bool      `gorm:"column:dry_run" json:"dry_run"`
	Filter      string    `gorm:"column:filter;type:varchar(255)" json:"filter,omitempty"`
	WindowStart time.Time `gorm:"column:window_start" json:"window_start"`
	WindowEnd   time.Time `gorm:"column:window_end" json:"window_end"`
	StartedAt   time.Time `gorm:"column:started_at;index" json:"started_at"`
	FinishedAt  time.Time `gorm:"column:finished_at" json:"finished_at"`
	Processed   int       `gorm:"column:processed" json:"processed"`
	Created     int       `gorm:"column:created" json:"created"`
	Updated     int       `gorm:"column:updated" json:"updated"`
	Deleted     int       `gorm:"column:deleted" json:"deleted"`
	Unchanged   int       `gorm:"column:unchanged" json:"unchanged"`
	Deferred    int       `gorm:"column:deferred" json:"deferred"`
	ErrorCount  int       `gorm:"column:error_count" json:"error_count"`
	Errors      string    `gorm:"column:errors;type:text" json:"-"`
	Fatal       string    `gorm:"column:fatal;type:text" json:"fatal,omitempty"`
}

// TableName overrides the table name.
func (SyncRun) TableName() string {
	return "sync_runs"
}

// Columns lists the columns the store reads and writes.
var Columns = []string{
	"id", "run_id", "trigger_source", "dry_run", "filter",
	"window_start", "window_end", "started_at", "finished_at",
	"processed", "created", "updated", "deleted", "unchanged", "deferred",
	"error_count", "errors", "fatal",
}

// NewSyncRun converts a run result into a row. fatal is the error that aborted the run, if any.
func NewSyncRun(trigger, filter string, result *reconcile.SyncResult, fatal error) SyncRun {
	row := SyncRun{
		RunID:       result.RunID,
		Trigger:     trigger,
		DryRun:      result.DryRun,
		Filter:      filter,
		WindowStart: result.Window.Start.UTC(),
		WindowEnd:   result.Window.End.UTC(),
		StartedAt:   result.StartedAt.UTC(),
		FinishedAt:  result.FinishedAt.UTC(),
		Processed:   result.Processed,
		Created:     result.Created,
		Updated:     result.Updated,
		Deleted:     result.Deleted,
		Unchanged:   result.Unchanged,
		Deferred:    result.Deferred,
		ErrorCount:  len(result.Errors),
	}
	if len(result.Errors) > 0 {
		if data, err := json.Marshal(result.Errors); err == nil {
			row.Errors = string(data)
		}
	}
	if fatal != nil {
		row.Fatal = fatal.Error()
	}
	return row
}

// ErrorList decodes the stored error messages.
func (r SyncRun) ErrorList() []string {
	if r.Errors == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(r.Errors), &out); err != nil {
		return []string{r.Errors}
	}
	return out
}

// Result rebuilds the run result stored in the row.
func (r SyncRun) Result() *reconcile.SyncResult {
	return &reconcile.SyncResult{
		RunID:      r.RunID,
		Processed:  r.Processed,
		Created:    r.Created,
		Updated:    r.Updated,
		Deleted:    r.Deleted,
		Unchanged:  r.Unchanged,
		Deferred:   r.Deferred,
		Errors:     r.ErrorList(),
		DryRun:     r.DryRun,
		Window:     reconcile.Window{Start: r.WindowStart, End: r.WindowEnd},
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}
