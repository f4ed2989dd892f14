package reconcile

import (
	"context"
)

// Source fetches events from the read-only source calendar.
type Source interface {
	// Name returns the origin tag stamped onto every event the source produces.
	Name() string

	// Fetch returns the events within window whose text matches filter.
	// Implementations must return a *FetchError on auth, transport or parse failure
	// and must not retry internally.
	Fetch(ctx context.Context, window Window, filter string) ([]CalendarEvent, error)
}

// Destination exposes the mutable destination calendar.
// Every method must only ever touch events carrying the sync provenance marker.
type Destination interface {
	// Name returns a short label used in logs and errors.
	Name() string

	// ListLinks returns the provenance-tagged events within window, keyed by source uid.
	ListLinks(ctx context.Context, window Window) (Links, error)

	// Create inserts event, stamping its uid and origin tag, and returns the new destination id.
	Create(ctx context.Context, event CalendarEvent) (string, error)

	// Update replaces the destination event with event and refreshes the last-synced stamp.
	Update(ctx context.Context, destinationID string, event CalendarEvent) error

	// Delete removes the destination event.
	Delete(ctx context.Context, destinationID string) error
}

// LinkResolver is implemented by destinations whose ListLinks only sees copies inside the window.
// ResolveLinks looks up the given source uids wherever their copies lie in time, so an event
// moved into the window from outside of it is updated instead of created a second time.
type LinkResolver interface {
	ResolveLinks(ctx context.Context, uids []string) (Links, error)
}
