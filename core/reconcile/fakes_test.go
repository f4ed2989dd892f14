package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// stubSource returns a fixed event list or error.
type stubSource struct {
	events []CalendarEvent
	err    error
	calls  int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context, window Window, filter string) ([]CalendarEvent, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]CalendarEvent, 0, len(s.events))
	for _, e := range s.events {
		if e.Matches(filter) {
			out = append(out, e)
		}
	}
	return out, nil
}

// memDestination is an in-memory destination keyed by generated ids.
type memDestination struct {
	mu      sync.Mutex
	events  map[string]CalendarEvent
	nextID  int
	listErr error

	resolveErr   error
	resolveCalls int

	// fail makes mutations touching the given uid or destination id fail.
	fail map[string]error

	creates, updates, deletes int

	inFlight    map[string]int
	overlap     bool
	maxInFlight int
	current     int
	delay       time.Duration
	onMutate    func()
}

func newMemDestination() *memDestination {
	return &memDestination{
		events:   map[string]CalendarEvent{},
		fail:     map[string]error{},
		inFlight: map[string]int{},
	}
}

func (d *memDestination) Name() string { return "memory" }

// ListLinks returns the events overlapping window, folding extra carriers of a uid into Duplicates.
func (d *memDestination) ListLinks(ctx context.Context, window Window) (Links, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listErr != nil {
		return nil, d.listErr
	}
	return d.collect(func(e CalendarEvent) bool { return window.Overlaps(e.Start, e.End) }), nil
}

// ResolveLinks returns the events carrying uids regardless of the window.
func (d *memDestination) ResolveLinks(ctx context.Context, uids []string) (Links, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resolveCalls++
	if d.resolveErr != nil {
		return nil, d.resolveErr
	}
	wanted := make(map[string]bool, len(uids))
	for _, uid := range uids {
		wanted[uid] = true
	}
	return d.collect(func(e CalendarEvent) bool { return wanted[e.UID] }), nil
}

func (d *memDestination) collect(keep func(CalendarEvent) bool) Links {
	ids := make([]string, 0, len(d.events))
	for id := range d.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	links := Links{}
	for _, id := range ids {
		e := d.events[id]
		if !keep(e) {
			continue
		}
		if link, ok := links[e.UID]; ok {
			link.Duplicates = append(link.Duplicates, id)
			links[e.UID] = link
			continue
		}
		links[e.UID] = Link{SourceUID: e.UID, DestinationID: id, ContentHash: e.ContentHash()}
	}
	return links
}

func (d *memDestination) begin(key string) error {
	d.mu.Lock()
	d.inFlight[key]++
	if d.inFlight[key] > 1 {
		d.overlap = true
	}
	d.current++
	if d.current > d.maxInFlight {
		d.maxInFlight = d.current
	}
	err := d.fail[key]
	onMutate := d.onMutate
	d.mu.Unlock()

	if onMutate != nil {
		onMutate()
	}
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	return err
}

func (d *memDestination) end(key string) {
	d.mu.Lock()
	d.inFlight[key]--
	d.current--
	d.mu.Unlock()
}

func (d *memDestination) Create(ctx context.Context, event CalendarEvent) (string, error) {
	defer d.end(event.UID)
	if err := d.begin(event.UID); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := fmt.Sprintf("dest-%d", d.nextID)
	d.events[id] = event
	d.creates++
	return id, nil
}

func (d *memDestination) Update(ctx context.Context, destinationID string, event CalendarEvent) error {
	defer d.end(event.UID)
	if err := d.begin(event.UID); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.events[destinationID]; !ok {
		return errors.New("not found")
	}
	d.events[destinationID] = event
	d.updates++
	return nil
}

func (d *memDestination) Delete(ctx context.Context, destinationID string) error {
	defer d.end(destinationID)
	if err := d.begin(destinationID); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.events, destinationID)
	d.deletes++
	return nil
}

func (d *memDestination) uids() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.UID)
	}
	return out
}

func (d *memDestination) mutations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.creates + d.updates + d.deletes
}

var testWindow = Window{
	Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
}

func eventAt(uid, summary string, start time.Time) CalendarEvent {
	e := event(uid, summary)
	e.Start = start
	e.End = start.Add(30 * time.Minute)
	return e
}

func event(uid, summary string) CalendarEvent {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	return CalendarEvent{
		UID:     uid,
		Summary: summary,
		Start:   start,
		End:     start.Add(30 * time.Minute),
		Source:  "stub",
	}
}
