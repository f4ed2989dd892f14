package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"calsync/core/reconcile"
	"calsync/core/storage"
	"calsync/feature/calendar/history"

	"go.uber.org/zap"
)

// Trigger values recorded with every run.
const (
	TriggerAPI      = "api"
	TriggerSchedule = "schedule"
	TriggerCLI      = "cli"
)

var (
	// ErrRunInProgress is returned when a run is requested while another one is still applying.
	ErrRunInProgress = errors.New("a sync run is already in progress")
	// ErrHistoryDisabled is returned by History when no database is configured.
	ErrHistoryDisabled = errors.New("run history is disabled")
)

// RunRequest describes one requested run.
type RunRequest struct {
	WindowDays int
	DryRun     bool
	Filter     string
	Trigger    string
}

// Prepared is a computed plan waiting to be applied.
type Prepared struct {
	Plan   *reconcile.Plan
	Window reconcile.Window
	Filter string
}

// Service runs reconciliations and keeps their history.
// At most one run is applied at a time per process.
type Service struct {
	engine      *reconcile.Engine
	source      reconcile.Source
	destination reconcile.Destination
	cfg         Config
	location    *time.Location

	history *history.Store
	archive storage.Client
	bucket  string

	mu     sync.Mutex
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a service reconciling source into destination.
func NewService(source reconcile.Source, destination reconcile.Destination, cfg Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid sync timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	engine := reconcile.NewEngine(source, destination, logger.Named("reconcile"), reconcile.Options{
		Concurrency:   cfg.Concurrency,
		SkipUnchanged: cfg.SkipUnchanged,
	})

	return &Service{
		engine:      engine,
		source:      source,
		destination: destination,
		cfg:         cfg,
		location:    loc,
		now:         time.Now,
		logger:      logger,
	}, nil
}

// UseHistory records every run in store.
func (s *Service) UseHistory(store *history.Store) {
	s.history = store
}

// UseArchive uploads a JSON report of every run to bucket.
func (s *Service) UseArchive(client storage.Client, bucket string) {
	s.archive = client
	s.bucket = bucket
}

// Config returns the sync configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Window returns the window covering days after today.
func (s *Service) Window(days int) (reconcile.Window, error) {
	return reconcile.WindowFromDays(s.now(), days, s.location)
}

// Trigger runs one reconciliation. It returns ErrRunInProgress without doing
// anything if another run holds the lock. Fatal run errors are returned together
// with the result that recorded them.
func (s *Service) Trigger(ctx context.Context, req RunRequest) (*reconcile.SyncResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	window, err := s.Window(req.WindowDays)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.runContext(ctx)
	defer cancel()

	result, runErr := s.engine.Run(ctx, reconcile.RunOptions{
		Window: window,
		DryRun: req.DryRun,
		Filter: req.Filter,
	})
	s.record(ctx, req, result, runErr)

	return result, runErr
}

// Prepare computes the plan for req without applying it. A fetch or link query failure
// is recorded as an aborted run before it is returned.
func (s *Service) Prepare(ctx context.Context, req RunRequest) (*Prepared, error) {
	window, err := s.Window(req.WindowDays)
	if err != nil {
		return nil, err
	}

	plan, err := s.engine.Prepare(ctx, window, req.Filter)
	if err != nil {
		result := s.engine.Aborted(reconcile.RunOptions{Window: window, DryRun: req.DryRun, Filter: req.Filter}, err)
		s.record(ctx, req, result, err)
		return nil, err
	}
	return &Prepared{Plan: plan, Window: window, Filter: req.Filter}, nil
}

// Apply executes a prepared plan and records the run.
func (s *Service) Apply(ctx context.Context, prepared *Prepared, dryRun bool, trigger string) (*reconcile.SyncResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	ctx, cancel := s.runContext(ctx)
	defer cancel()

	result := s.engine.ApplyPlan(ctx, prepared.Plan, reconcile.RunOptions{
		Window: prepared.Window,
		DryRun: dryRun,
		Filter: prepared.Filter,
	})
	s.record(ctx, RunRequest{DryRun: dryRun, Filter: prepared.Filter, Trigger: trigger}, result, nil)

	return result, nil
}

// Links returns the destination links within the window covering days after today,
// sorted by source uid.
func (s *Service) Links(ctx context.Context, days int) (reconcile.Window, []reconcile.Link, error) {
	window, err := s.Window(days)
	if err != nil {
		return window, nil, err
	}

	links, err := s.destination.ListLinks(ctx, window)
	if err != nil {
		return window, nil, err
	}

	out := make([]reconcile.Link, 0, len(links))
	for _, link := range links {
		out = append(out, link)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceUID < out[j].SourceUID })
	return window, out, nil
}

// History returns the most recent recorded runs.
func (s *Service) History(ctx context.Context, limit int) ([]history.SyncRun, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.List(ctx, limit)
}

// ScheduledJob returns the job the scheduler invokes. Overlapping ticks are skipped.
func (s *Service) ScheduledJob() func(context.Context) {
	return func(ctx context.Context) {
		result, err := s.Trigger(ctx, RunRequest{
			WindowDays: s.cfg.WindowDays,
			Filter:     s.cfg.Filter,
			Trigger:    TriggerSchedule,
		})
		switch {
		case errors.Is(err, ErrRunInProgress):
			s.logger.Info("Scheduled sync skipped, a run is in progress")
		case err != nil:
			s.logger.Error("Scheduled sync failed", zap.Error(err))
		case result.Failed():
			s.logger.Warn("Scheduled sync finished with errors", zap.Strings("errors", result.Errors))
		}
	}
}

func (s *Service) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RunTimeoutSeconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(s.cfg.RunTimeoutSeconds)*time.Second)
}

// record stores the run in history and the archive. Failures are logged and never
// change the outcome of the run. It detaches from ctx so cancelled runs are still recorded.
func (s *Service) record(ctx context.Context, req RunRequest, result *reconcile.SyncResult, runErr error) {
	if result == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	row := history.NewSyncRun(req.Trigger, req.Filter, result, runErr)
	log := s.logger.With(zap.String("run_id", result.RunID))

	if s.history != nil {
		if err := s.history.Record(ctx, row); err != nil {
			log.Warn("Failed to record run history", zap.Error(err))
		}
	}

	if s.archive != nil {
		key, err := archiveReport(ctx, s.archive, s.bucket, row, result)
		if err != nil {
			log.Warn("Failed to archive run report", zap.Error(err))
			return
		}
		log.Debug("Archived run report", zap.String("key", key))
	}
}
