package caldav

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"calsync/core/reconcile"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"go.uber.org/zap"
)

// Name is the origin tag stamped onto events fetched from CalDAV.
const Name = "caldav"

// StatusCancelled marks a VEVENT or a single overridden occurrence as called off.
// Cancelled occurrences are not returned by Fetch, so their destination copies are removed.
const StatusCancelled = "CANCELLED"

// ErrNotConfigured is returned when the CalDAV endpoint or calendar is missing.
var ErrNotConfigured = errors.New("caldav source not configured")

// querier is the subset of *caldav.Client the source uses.
type querier interface {
	FindCurrentUserPrincipal(ctx context.Context) (string, error)
	FindCalendarHomeSet(ctx context.Context, principal string) (string, error)
	FindCalendars(ctx context.Context, calendarHomeSet string) ([]caldav.Calendar, error)
	QueryCalendar(ctx context.Context, calendar string, query *caldav.CalendarQuery) ([]caldav.CalendarObject, error)
}

// Calendar describes one calendar collection found on the server.
type Calendar struct {
	Path        string   `json:"path" yaml:"path"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Components  []string `json:"components,omitempty" yaml:"components,omitempty"`
}

// Source reads events from a CalDAV calendar. It implements reconcile.Source.
type Source struct {
	client         querier
	calendarPath   string
	location       *time.Location
	maxOccurrences int
	logger         *zap.Logger
}

// NewSource creates a CalDAV source authenticated with basic auth.
func NewSource(cfg Config, logger *zap.Logger) (*Source, error) {
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	var httpClient webdav.HTTPClient = &http.Client{Timeout: time.Duration(timeout) * time.Second}
	if cfg.Username != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, cfg.Username, cfg.Password)
	}

	client, err := caldav.NewClient(httpClient, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	return newSource(client, cfg, logger)
}

func newSource(client querier, cfg Config, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid source timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	return &Source{
		client:         client,
		calendarPath:   cfg.CalendarPath,
		location:       loc,
		maxOccurrences: cfg.MaxOccurrences,
		logger:         logger.Named("caldav"),
	}, nil
}

// Name returns the origin tag.
func (s *Source) Name() string {
	return Name
}

// Fetch returns the occurrences within window whose summary, description or location
// contains filter. A single object that cannot be decoded fails the whole fetch,
// since dropping it would make its destination copy look deleted.
func (s *Source) Fetch(ctx context.Context, window reconcile.Window, filter string) ([]reconcile.CalendarEvent, error) {
	if s.calendarPath == "" {
		return nil, &reconcile.FetchError{Source: Name, Kind: reconcile.FetchTransport, Err: ErrNotConfigured}
	}

	// 1. Query the server for objects overlapping the window
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: window.Start,
				End:   window.End,
			}},
		},
	}

	objects, err := s.client.QueryCalendar(ctx, s.calendarPath, query)
	if err != nil {
		return nil, classify(Name, fmt.Errorf("query calendar %s: %w", s.calendarPath, err))
	}

	// 2. Decode components
	var vevents []vevent
	for _, obj := range objects {
		evs, unresolved, err := parseObject(obj, s.location)
		if err != nil {
			return nil, parseError(Name, err)
		}
		if len(unresolved) > 0 {
			s.logger.Warn("Unknown time zone, reading as source timezone",
				zap.String("object", obj.Path),
				zap.Strings("tzids", unresolved),
				zap.String("timezone", s.location.String()),
			)
		}
		vevents = append(vevents, evs...)
	}

	// 3. Expand recurrences into concrete occurrences
	expanded, err := expand(vevents, window, s.maxOccurrences, Name)
	if err != nil {
		return nil, parseError(Name, err)
	}
	for _, uid := range expanded.truncated {
		s.logger.Warn("Recurring event truncated", zap.String("uid", uid), zap.Int("cap", s.maxOccurrences))
	}

	// 4. Drop cancelled occurrences and apply the text predicate
	events := make([]reconcile.CalendarEvent, 0, len(expanded.events))
	cancelled := 0
	for _, ev := range expanded.events {
		if ev.Status == StatusCancelled {
			cancelled++
			continue
		}
		if ev.Matches(filter) {
			events = append(events, ev)
		}
	}

	s.logger.Debug("Fetched source events",
		zap.Int("objects", len(objects)),
		zap.Int("occurrences", len(expanded.events)),
		zap.Int("cancelled", cancelled),
		zap.Int("matched", len(events)),
		zap.String("filter", filter),
	)

	return events, nil
}

// DiscoverCalendars lists the calendars of the authenticated user.
func (s *Source) DiscoverCalendars(ctx context.Context) ([]Calendar, error) {
	principal, err := s.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, classify(Name, fmt.Errorf("find principal: %w", err))
	}

	homeSet, err := s.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, classify(Name, fmt.Errorf("find home set: %w", err))
	}

	cals, err := s.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, classify(Name, fmt.Errorf("find calendars: %w", err))
	}

	result := make([]Calendar, 0, len(cals))
	for _, cal := range cals {
		result = append(result, Calendar{
			Path:        cal.Path,
			Name:        cal.Name,
			Description: cal.Description,
			Components:  cal.SupportedComponentSet,
		})
	}
	return result, nil
}

// Ping verifies that the server is reachable and accepts the credentials.
func (s *Source) Ping(ctx context.Context) error {
	if _, err := s.client.FindCurrentUserPrincipal(ctx); err != nil {
		return classify(Name, err)
	}
	return nil
}

// CalendarPath returns the configured collection path.
func (s *Source) CalendarPath() string {
	return strings.TrimSpace(s.calendarPath)
}
