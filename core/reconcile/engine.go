package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configures an Engine.
type Options struct {
	// Concurrency bounds the number of in-flight destination mutations. Values below 1 mean sequential.
	Concurrency int

	// SkipUnchanged enables content-hash change detection.
	SkipUnchanged bool

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Engine reconciles one source calendar into one destination calendar.
// An Engine holds no per-run state and can be shared between callers.
type Engine struct {
	source      Source
	destination Destination
	logger      *zap.Logger
	opts        Options
}

// NewEngine creates a new Engine instance.
func NewEngine(source Source, destination Destination, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		source:      source,
		destination: destination,
		logger:      logger,
		opts:        opts,
	}
}

// Run performs one full reconciliation: fetch, list links, plan and apply.
// Fetch and link listing failures are fatal: they are recorded in the result and
// returned, and no mutation is attempted. Per-event failures never fail the run.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*SyncResult, error) {
	result := e.newResult(opts)
	log := e.logger.With(zap.String("run_id", result.RunID), zap.Bool("dry_run", opts.DryRun))

	plan, err := e.Prepare(ctx, opts.Window, opts.Filter)
	if err != nil {
		e.abort(result, err)
		log.Error("Sync run aborted", zap.Error(err))
		return result, err
	}

	e.apply(ctx, plan, opts.DryRun, result, log)
	result.FinishedAt = e.opts.Now()

	log.Info("Sync run finished",
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("deferred", result.Deferred),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", result.Duration()),
	)

	return result, nil
}

// Prepare fetches source events and destination links for window and builds the plan.
// It performs no mutation.
func (e *Engine) Prepare(ctx context.Context, window Window, filter string) (*Plan, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	// 1. Fetch source events
	events, err := e.source.Fetch(ctx, window, filter)
	if err != nil {
		return nil, asFetchError(e.source.Name(), err)
	}

	// 2. Discover links from destination provenance
	links, err := e.destination.ListLinks(ctx, window)
	if err != nil {
		return nil, asLinkQueryError(e.destination.Name(), err)
	}
	if links == nil {
		links = Links{}
	}

	// 3. Resolve fetched uids whose copy lies outside the window
	resolved, err := e.resolveUnlinked(ctx, events, links)
	if err != nil {
		return nil, asLinkQueryError(e.destination.Name(), err)
	}

	e.logger.Debug("Sync inputs loaded",
		zap.Int("events", len(events)),
		zap.Int("links", len(links)),
		zap.Int("resolved", resolved),
		zap.Stringer("window", window),
	)

	// 4. Diff
	return BuildPlan(events, links, PlanOptions{SkipUnchanged: e.opts.SkipUnchanged}), nil
}

// resolveUnlinked merges into links the out-of-window copies of fetched uids that ListLinks
// did not return. It is a no-op for destinations that do not implement LinkResolver.
func (e *Engine) resolveUnlinked(ctx context.Context, events []CalendarEvent, links Links) (int, error) {
	resolver, ok := e.destination.(LinkResolver)
	if !ok {
		return 0, nil
	}

	seen := make(map[string]struct{}, len(events))
	var missing []string
	for _, event := range events {
		uid := strings.TrimSpace(event.UID)
		if uid == "" {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		if _, linked := links[uid]; !linked {
			missing = append(missing, uid)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	found, err := resolver.ResolveLinks(ctx, missing)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for uid, link := range found {
		if _, wanted := seen[uid]; !wanted {
			continue
		}
		if _, linked := links[uid]; linked {
			continue
		}
		links[uid] = link
		resolved++
	}
	return resolved, nil
}

// ApplyPlan executes plan against the destination and aggregates the outcome.
// With opts.DryRun set no mutating adapter method is called; counts report what would change.
func (e *Engine) ApplyPlan(ctx context.Context, plan *Plan, opts RunOptions) *SyncResult {
	result := e.newResult(opts)
	log := e.logger.With(zap.String("run_id", result.RunID), zap.Bool("dry_run", opts.DryRun))

	e.apply(ctx, plan, opts.DryRun, result, log)
	result.FinishedAt = e.opts.Now()
	return result
}

// Aborted returns the result of a run whose planning failed with err, so that it can be
// recorded like any other run. No mutation was attempted.
func (e *Engine) Aborted(opts RunOptions, err error) *SyncResult {
	result := e.newResult(opts)
	e.abort(result, err)
	return result
}

func (e *Engine) abort(result *SyncResult, err error) {
	result.Errors = append(result.Errors, err.Error())
	result.FinishedAt = e.opts.Now()
}

func (e *Engine) newResult(opts RunOptions) *SyncResult {
	return &SyncResult{
		RunID:     uuid.NewString(),
		Errors:    []string{},
		DryRun:    opts.DryRun,
		Window:    opts.Window,
		StartedAt: e.opts.Now(),
	}
}

// apply dispatches plan actions with bounded parallelism. Each uid owns at most one
// action, so no create and update for the same uid can be in flight together.
func (e *Engine) apply(ctx context.Context, plan *Plan, dryRun bool, result *SyncResult, log *zap.Logger) {
	result.Processed += plan.Summary.Processed
	result.Errors = append(result.Errors, plan.Rejected...)

	if dryRun {
		for _, action := range plan.Actions {
			log.Debug("Would apply action",
				zap.String("action", string(action.Type)),
				zap.String("uid", action.SourceUID),
				zap.String("destination_id", action.DestinationID),
				zap.String("reason", action.Reason),
			)
			result.count(action.Type)
		}
		return
	}

	var (
		mu       sync.Mutex
		failures = make([]error, len(plan.Actions))
		g        errgroup.Group
	)
	g.SetLimit(e.opts.Concurrency)

	deferred := 0
	for i, action := range plan.Actions {
		if action.Type == ActionSkip {
			mu.Lock()
			result.Unchanged++
			mu.Unlock()
			continue
		}
		if ctx.Err() != nil {
			remaining := countMutations(plan.Actions[i:])
			mu.Lock()
			deferred += remaining
			result.Unchanged += len(plan.Actions[i:]) - remaining
			mu.Unlock()
			break
		}

		g.Go(func() error {
			// A slot may free up only after cancellation
			if ctx.Err() != nil {
				mu.Lock()
				deferred++
				mu.Unlock()
				return nil
			}

			err := e.execute(ctx, action, log)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[i] = err
				return nil
			}
			result.count(action.Type)
			return nil
		})
	}
	_ = g.Wait()

	// Report failures in plan order regardless of completion order
	for _, err := range failures {
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	if deferred > 0 {
		result.Deferred = deferred
		result.Errors = append(result.Errors, fmt.Sprintf("run cancelled: %d actions deferred to next run", deferred))
		log.Warn("Sync run cancelled", zap.Int("deferred", deferred))
	}
}

// execute performs one mutating action, normalizing failures to RemoteOperationError.
func (e *Engine) execute(ctx context.Context, action Action, log *zap.Logger) error {
	fields := []zap.Field{
		zap.String("action", string(action.Type)),
		zap.String("uid", action.SourceUID),
		zap.String("destination_id", action.DestinationID),
	}

	var err error
	switch action.Type {
	case ActionCreate:
		var id string
		id, err = e.destination.Create(ctx, *action.Event)
		fields = append(fields, zap.String("created_id", id))
	case ActionUpdate:
		err = e.destination.Update(ctx, action.DestinationID, *action.Event)
	case ActionDelete:
		err = e.destination.Delete(ctx, action.DestinationID)
	default:
		return nil
	}

	if err != nil {
		remoteErr := asRemoteOperationError(action, err)
		log.Warn("Action failed", append(fields, zap.Error(remoteErr))...)
		return remoteErr
	}

	log.Debug("Action applied", fields...)
	return nil
}

func (r *SyncResult) count(t ActionType) {
	switch t {
	case ActionCreate:
		r.Created++
	case ActionUpdate:
		r.Updated++
	case ActionDelete:
		r.Deleted++
	case ActionSkip:
		r.Unchanged++
	}
}

func countMutations(actions []Action) int {
	n := 0
	for _, action := range actions {
		if action.Mutates() {
			n++
		}
	}
	return n
}
