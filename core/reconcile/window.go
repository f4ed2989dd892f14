package reconcile

import (
	"fmt"
	"time"
)

// WindowFromDays returns the window starting at the beginning of today in loc
// and covering days further full days, so days=0 covers today only.
func WindowFromDays(now time.Time, days int, loc *time.Location) (Window, error) {
	if days < 0 {
		return Window{}, fmt.Errorf("%w: window days must be >= 0, got %d", ErrInvalidWindow, days)
	}
	if loc == nil {
		loc = time.UTC
	}

	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, days+1)

	return Window{Start: start.UTC(), End: end.UTC()}, nil
}

// Validate rejects zero or inverted windows.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidWindow)
	}
	if !w.End.After(w.Start) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidWindow,
			w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside the half-open window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Overlaps reports whether [start, end) intersects the window.
// Zero-length events are treated as instants.
func (w Window) Overlaps(start, end time.Time) bool {
	if !end.After(start) {
		return w.Contains(start)
	}
	return start.Before(w.End) && end.After(w.Start)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
