package checks

import (
	"time"
)

// Status values reported by a check.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDisabled = "disabled"
)

// Result strictly types the outcome of one check.
type Result struct {
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Error     string   `json:"error,omitempty"`
	Missing   []string `json:"missing,omitempty"`
	LatencyMs int64    `json:"latency_ms"`
}

// Healthy reports whether the check passed or was not configured.
func (r Result) Healthy() bool {
	return r.Status != StatusError
}

func disabled(name string) Result {
	return Result{Name: name, Status: StatusDisabled}
}

func finish(name string, started time.Time, err error) Result {
	r := Result{Name: name, Status: StatusOK, LatencyMs: time.Since(started).Milliseconds()}
	if err != nil {
		r.Status = StatusError
		r.Error = err.Error()
	}
	return r
}
