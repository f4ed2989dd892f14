package calendar

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"calsync/core/reconcile"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

type fakeSource struct {
	events  []reconcile.CalendarEvent
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *fakeSource) Name() string { return "caldav" }

func (s *fakeSource) Fetch(ctx context.Context, window reconcile.Window, filter string) ([]reconcile.CalendarEvent, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	var out []reconcile.CalendarEvent
	for _, ev := range s.events {
		if ev.Matches(filter) {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeDestination struct {
	mu     sync.Mutex
	events map[string]reconcile.CalendarEvent
	uids   map[string]string
	nextID int
	err    error
}

func newFakeDestination() *fakeDestination {
	return &fakeDestination{
		events: make(map[string]reconcile.CalendarEvent),
		uids:   make(map[string]string),
	}
}

func (d *fakeDestination) Name() string { return "google" }

func (d *fakeDestination) ListLinks(ctx context.Context, window reconcile.Window) (reconcile.Links, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	links := make(reconcile.Links)
	for id, uid := range d.uids {
		links[uid] = reconcile.Link{SourceUID: uid, DestinationID: id}
	}
	return links, nil
}

func (d *fakeDestination) Create(ctx context.Context, event reconcile.CalendarEvent) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := fmt.Sprintf("g%d", d.nextID)
	d.events[id] = event
	d.uids[id] = event.UID
	return id, nil
}

func (d *fakeDestination) Update(ctx context.Context, id string, event reconcile.CalendarEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events[id] = event
	return nil
}

func (d *fakeDestination) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.events, id)
	delete(d.uids, id)
	return nil
}

func (d *fakeDestination) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func event(uid, summary string) reconcile.CalendarEvent {
	start := fixedNow.Add(24 * time.Hour)
	return reconcile.CalendarEvent{
		UID:     uid,
		Summary: summary,
		Start:   start,
		End:     start.Add(time.Hour),
		Source:  "caldav",
	}
}

func setupService(t *testing.T, source *fakeSource, dest *fakeDestination) *Service {
	svc, err := NewService(source, dest, Config{WindowDays: 7, Concurrency: 2, Timezone: "UTC", RunTimeoutSeconds: 10}, nil)
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }
	return svc
}
