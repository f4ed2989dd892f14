package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"calsync/core/reconcile"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Name labels the destination in logs and errors.
const Name = "google"

// Private extended property keys stamped on every synced event.
const (
	PropSourceUID  = "calsync_source_uid"
	PropOrigin     = "calsync_origin"
	PropHash       = "calsync_hash"
	PropLastSynced = "calsync_last_synced"
)

// ErrNoCredentials is returned when neither a credentials file nor a token file is configured.
var ErrNoCredentials = errors.New("google calendar credentials not configured")

// Destination writes events to one Google calendar. It implements reconcile.Destination.
type Destination struct {
	service    *calendar.Service
	calendarID string
	origin     string
	timeout    time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewDestination creates a destination authenticated from cfg. Events are tagged with origin.
func NewDestination(ctx context.Context, cfg Config, origin string, logger *zap.Logger) (*Destination, error) {
	var opts []option.ClientOption

	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(calendar.CalendarEventsScope, calendar.CalendarReadonlyScope))
	case cfg.TokenFile != "":
		token, err := loadToken(cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	default:
		return nil, ErrNoCredentials
	}

	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return newDestination(svc, cfg, origin, logger), nil
}

func newDestination(svc *calendar.Service, cfg Config, origin string, logger *zap.Logger) *Destination {
	if logger == nil {
		logger = zap.NewNop()
	}
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Destination{
		service:    svc,
		calendarID: calendarID,
		origin:     origin,
		timeout:    timeout,
		now:        time.Now,
		logger:     logger.Named("gcal"),
	}
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds no token", path)
	}
	return &token, nil
}

// Name returns the destination label.
func (d *Destination) Name() string {
	return Name
}

// CalendarID returns the destination calendar id.
func (d *Destination) CalendarID() string {
	return d.calendarID
}

// ListLinks returns the tagged events overlapping window keyed by source uid.
// Additional events carrying an already seen uid are reported as duplicates.
func (d *Destination) ListLinks(ctx context.Context, window reconcile.Window) (reconcile.Links, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	links := make(reconcile.Links)
	call := d.service.Events.List(d.calendarID).
		PrivateExtendedProperty(PropOrigin+"="+d.origin).
		TimeMin(window.Start.UTC().Format(time.RFC3339)).
		TimeMax(window.End.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(false).
		MaxResults(2500)

	untagged := 0
	err := call.Pages(ctx, func(page *calendar.Events) error {
		untagged += collectLinks(links, page.Items)
		return nil
	})
	if err != nil {
		return nil, &reconcile.LinkQueryError{Destination: Name, Err: err}
	}

	if untagged > 0 {
		d.logger.Warn("Ignoring tagged events without source uid", zap.Int("count", untagged))
	}
	d.logger.Debug("Listed destination links", zap.Int("links", len(links)), zap.Stringer("window", window))

	return links, nil
}

// ResolveLinks looks up the tagged events carrying each of uids without any time bound.
// Uids with no tagged event are absent from the result.
func (d *Destination) ResolveLinks(ctx context.Context, uids []string) (reconcile.Links, error) {
	links := make(reconcile.Links)
	for _, uid := range uids {
		if err := d.resolveLink(ctx, uid, links); err != nil {
			return nil, &reconcile.LinkQueryError{Destination: Name, Err: fmt.Errorf("resolve uid %s: %w", uid, err)}
		}
	}

	if len(links) > 0 {
		d.logger.Debug("Resolved links outside the window", zap.Int("requested", len(uids)), zap.Int("resolved", len(links)))
	}
	return links, nil
}

func (d *Destination) resolveLink(ctx context.Context, uid string, links reconcile.Links) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	call := d.service.Events.List(d.calendarID).
		PrivateExtendedProperty(PropOrigin+"="+d.origin, PropSourceUID+"="+uid).
		SingleEvents(true).
		ShowDeleted(false).
		MaxResults(250)

	return call.Pages(ctx, func(page *calendar.Events) error {
		collectLinks(links, page.Items)
		return nil
	})
}

// collectLinks adds the tagged items to links and returns how many carried no source uid.
// Additional events carrying an already seen uid are recorded as duplicates.
func collectLinks(links reconcile.Links, items []*calendar.Event) int {
	untagged := 0
	for _, item := range items {
		props := privateProps(item)
		uid := props[PropSourceUID]
		if uid == "" {
			untagged++
			continue
		}

		if existing, ok := links[uid]; ok {
			existing.Duplicates = append(existing.Duplicates, item.Id)
			links[uid] = existing
			continue
		}

		link := reconcile.Link{
			SourceUID:     uid,
			DestinationID: item.Id,
			ContentHash:   props[PropHash],
		}
		if ts, err := time.Parse(time.RFC3339, props[PropLastSynced]); err == nil {
			link.LastSynced = ts.UTC()
		}
		links[uid] = link
	}
	return untagged
}

// Create inserts event and returns the new Google event id.
func (d *Destination) Create(ctx context.Context, event reconcile.CalendarEvent) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	created, err := d.service.Events.Insert(d.calendarID, d.toGoogle(event)).Context(ctx).Do()
	if err != nil {
		return "", &reconcile.RemoteOperationError{Op: reconcile.ActionCreate, SourceUID: event.UID, Err: err}
	}
	return created.Id, nil
}

// Update replaces the Google event destinationID with event.
func (d *Destination) Update(ctx context.Context, destinationID string, event reconcile.CalendarEvent) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if _, err := d.service.Events.Update(d.calendarID, destinationID, d.toGoogle(event)).Context(ctx).Do(); err != nil {
		return &reconcile.RemoteOperationError{Op: reconcile.ActionUpdate, SourceUID: event.UID, DestinationID: destinationID, Err: err}
	}
	return nil
}

// Delete removes the Google event destinationID. An event that is already gone counts as deleted.
func (d *Destination) Delete(ctx context.Context, destinationID string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.service.Events.Delete(d.calendarID, destinationID).Context(ctx).Do()
	if err != nil && !isGone(err) {
		return &reconcile.RemoteOperationError{Op: reconcile.ActionDelete, DestinationID: destinationID, Err: err}
	}
	return nil
}

// Ping verifies that the calendar exists and the credentials can read it.
func (d *Destination) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if _, err := d.service.Calendars.Get(d.calendarID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("get calendar %s: %w", d.calendarID, err)
	}
	return nil
}

func (d *Destination) toGoogle(event reconcile.CalendarEvent) *calendar.Event {
	out := &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Start:       eventTime(event.Start, event.AllDay),
		End:         eventTime(event.End, event.AllDay),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				PropSourceUID:  event.UID,
				PropOrigin:     d.origin,
				PropHash:       event.ContentHash(),
				PropLastSynced: d.now().UTC().Format(time.RFC3339),
			},
		},
	}
	if event.Status == "TENTATIVE" {
		out.Status = "tentative"
	}
	return out
}

// eventTime converts an instant to the Google representation. All-day events use a
// date, and their exclusive end date matches the iCalendar convention.
func eventTime(t time.Time, allDay bool) *calendar.EventDateTime {
	if allDay {
		return &calendar.EventDateTime{Date: t.UTC().Format("2006-01-02")}
	}
	return &calendar.EventDateTime{DateTime: t.UTC().Format(time.RFC3339), TimeZone: "UTC"}
}

func privateProps(e *calendar.Event) map[string]string {
	if e.ExtendedProperties == nil || e.ExtendedProperties.Private == nil {
		return map[string]string{}
	}
	return e.ExtendedProperties.Private
}

func isGone(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}
