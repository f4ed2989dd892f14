package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runOnce(t *testing.T, engine *Engine, dryRun bool) *SyncResult {
	t.Helper()
	result, err := engine.Run(context.Background(), RunOptions{Window: testWindow, DryRun: dryRun})
	require.NoError(t, err)
	return result
}

// TestEngine_Run_CreateScenario tests a single unlinked event against an empty destination.
func TestEngine_Run_CreateScenario(t *testing.T) {
	source := &stubSource{events: []CalendarEvent{event("a", "Standup")}}
	dest := newMemDestination()

	result := runOnce(t, NewEngine(source, dest, nil, Options{}), false)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Deleted)
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"a"}, dest.uids())
}

// TestEngine_Run_DeleteFailureScenario tests that a failed delete is recorded and not counted.
func TestEngine_Run_DeleteFailureScenario(t *testing.T) {
	source := &stubSource{}
	dest := newMemDestination()
	dest.events["X"] = event("b", "Gone")
	dest.fail["X"] = errors.New("403 forbidden")

	result := runOnce(t, NewEngine(source, dest, nil, Options{}), false)

	assert.Equal(t, 0, result.Deleted)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "uid=b")
	assert.Contains(t, result.Errors[0], "id=X")
	assert.Contains(t, result.Errors[0], "403 forbidden")
}

// TestEngine_Run_Idempotence tests that a second run with unchanged input creates and deletes nothing.
func TestEngine_Run_Idempotence(t *testing.T) {
	source := &stubSource{events: []CalendarEvent{event("a", "1"), event("b", "2")}}
	dest := newMemDestination()
	engine := NewEngine(source, dest, nil, Options{})

	first := runOnce(t, engine, false)
	assert.Equal(t, 2, first.Created)

	second := runOnce(t, engine, false)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Deleted)
	assert.Equal(t, 2, second.Updated)
	assert.Empty(t, second.Errors)
}

// TestEngine_Run_IdempotenceWithChangeDetection tests that unchanged content issues no mutation at all.
func TestEngine_Run_IdempotenceWithChangeDetection(t *testing.T) {
	source := &stubSource{events: []CalendarEvent{event("a", "1"), event("b", "2")}}
	dest := newMemDestination()
	engine := NewEngine(source, dest, nil, Options{SkipUnchanged: true})

	runOnce(t, engine, false)
	before := dest.mutations()

	second := runOnce(t, engine, false)
	assert.Equal(t, 2, second.Unchanged)
	assert.Equal(t, before, dest.mutations())
}

// TestEngine_Run_Convergence tests that the linked uid set equals the source uid set after one run.
func TestEngine_Run_Convergence(t *testing.T) {
	dest := newMemDestination()
	dest.events["old-1"] = event("gone", "stale")
	dest.events["old-2"] = event("kept", "stale title")

	source := &stubSource{events: []CalendarEvent{event("kept", "fresh title"), event("new", "added")}}
	result := runOnce(t, NewEngine(source, dest, nil, Options{}), false)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Deleted)

	uids := dest.uids()
	sort.Strings(uids)
	assert.Equal(t, []string{"kept", "new"}, uids)
	assert.Equal(t, "fresh title", dest.events["old-2"].Summary)
}

// TestEngine_Run_DeletionHappensOnce tests that a removed uid is deleted once and never again.
func TestEngine_Run_DeletionHappensOnce(t *testing.T) {
	source := &stubSource{events: []CalendarEvent{event("a", "1")}}
	dest := newMemDestination()
	engine := NewEngine(source, dest, nil, Options{})

	runOnce(t, engine, false)

	source.events = nil
	first := runOnce(t, engine, false)
	assert.Equal(t, 1, first.Deleted)

	second := runOnce(t, engine, false)
	assert.Equal(t, 0, second.Deleted)
	assert.Equal(t, 1, dest.deletes)
}

// TestEngine_Run_PartialFailureIsolation tests that one failing event does not affect the others.
func TestEngine_Run_PartialFailureIsolation(t *testing.T) {
	source := &stubSource{events: []CalendarEvent{event("a", "1"), event("b", "2"), event("c", "3")}}
	dest := newMemDestination()
	dest.fail["b"] = errors.New("rate limited")

	result := runOnce(t, NewEngine(source, dest, nil, Options{}), false)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "create uid=b")

	uids := dest.uids()
	sort.Strings(uids)
	assert.Equal(t, []string{"a", "c"}, uids)
}

// TestEngine_Run_DryRun tests that dry-run computes counts and never mutates.
func TestEngine_Run_DryRun(t *testing.T) {
	dest := newMemDestination()
	dest.events["X"] = event("b", "linked")
	dest.events["Y"] = event("c", "gone")
	source := &stubSource{events: []CalendarEvent{event("a", "new"), event("b", "linked")}}

	result := runOnce(t, NewEngine(source, dest, nil, Options{Concurrency: 4}), true)

	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 0, dest.mutations())
	assert.Len(t, dest.events, 2)
}

// TestEngine_Run_DuplicateUID tests that the last duplicate reaches the destination exactly once.
func TestEngine_Run_DuplicateUID(t *testing.T) {
	source := &stubSource{events: []CalendarEvent{event("a", "first"), event("a", "last")}}
	dest := newMemDestination()

	result := runOnce(t, NewEngine(source, dest, nil, Options{Concurrency: 2}), false)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Created)
	require.Len(t, dest.events, 1)
	for _, e := range dest.events {
		assert.Equal(t, "last", e.Summary)
	}
}

// TestEngine_Run_FetchErrorIsFatal tests that a source failure aborts before any mutation.
func TestEngine_Run_FetchErrorIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind FetchKind
	}{
		{"classified", &FetchError{Source: "stub", Kind: FetchAuth, Err: errors.New("401")}, FetchAuth},
		{"plain", errors.New("connection refused"), FetchTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := newMemDestination()
			dest.events["X"] = event("b", "linked")
			engine := NewEngine(&stubSource{err: tt.err}, dest, nil, Options{})

			result, err := engine.Run(context.Background(), RunOptions{Window: testWindow})

			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tt.wantKind, fetchErr.Kind)
			require.NotNil(t, result)
			assert.Len(t, result.Errors, 1)
			assert.Equal(t, 0, dest.mutations())
			assert.Len(t, dest.events, 1)
		})
	}
}

// TestEngine_Run_LinkQueryErrorIsFatal tests that a link listing failure aborts before any mutation.
func TestEngine_Run_LinkQueryErrorIsFatal(t *testing.T) {
	dest := newMemDestination()
	dest.listErr = errors.New("quota exceeded")
	engine := NewEngine(&stubSource{events: []CalendarEvent{event("a", "1")}}, dest, nil, Options{})

	result, err := engine.Run(context.Background(), RunOptions{Window: testWindow})

	var linkErr *LinkQueryError
	require.ErrorAs(t, err, &linkErr)
	assert.Equal(t, "memory", linkErr.Destination)
	assert.Equal(t, 0, result.Created)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, 0, dest.mutations())
}

// TestEngine_Run_InvalidWindow tests that an inverted window is rejected before fetching.
func TestEngine_Run_InvalidWindow(t *testing.T) {
	source := &stubSource{}
	engine := NewEngine(source, newMemDestination(), nil, Options{})

	_, err := engine.Run(context.Background(), RunOptions{Window: Window{Start: testWindow.End, End: testWindow.Start}})

	assert.ErrorIs(t, err, ErrInvalidWindow)
	assert.Equal(t, 0, source.calls)
}

// TestEngine_Run_BoundedConcurrency tests the in-flight limit and the per-uid guarantee.
func TestEngine_Run_BoundedConcurrency(t *testing.T) {
	var events []CalendarEvent
	for i := 0; i < 20; i++ {
		events = append(events, event(fmt.Sprintf("uid-%02d", i), "e"))
	}
	// Repeated uids must still produce a single mutation each
	events = append(events, event("uid-00", "again"), event("uid-01", "again"))

	dest := newMemDestination()
	dest.delay = 5 * time.Millisecond
	engine := NewEngine(&stubSource{events: events}, dest, nil, Options{Concurrency: 4})

	result := runOnce(t, engine, false)

	assert.Equal(t, 20, result.Created)
	assert.LessOrEqual(t, dest.maxInFlight, 4)
	assert.Greater(t, dest.maxInFlight, 1)
	assert.False(t, dest.overlap)
}

// TestEngine_Run_ErrorsInPlanOrder tests that failures are reported in plan order under parallelism.
func TestEngine_Run_ErrorsInPlanOrder(t *testing.T) {
	var events []CalendarEvent
	dest := newMemDestination()
	for i := 0; i < 8; i++ {
		uid := fmt.Sprintf("uid-%d", i)
		events = append(events, event(uid, "e"))
		dest.fail[uid] = fmt.Errorf("boom %d", i)
	}
	dest.delay = time.Millisecond

	result := runOnce(t, NewEngine(&stubSource{events: events}, dest, nil, Options{Concurrency: 8}), false)

	require.Len(t, result.Errors, 8)
	for i, msg := range result.Errors {
		assert.Contains(t, msg, fmt.Sprintf("uid=uid-%d:", i))
	}
}

// TestEngine_Run_CancellationDefersRemaining tests that actions not yet dispatched are deferred.
func TestEngine_Run_CancellationDefersRemaining(t *testing.T) {
	var events []CalendarEvent
	for i := 0; i < 5; i++ {
		events = append(events, event(fmt.Sprintf("uid-%d", i), "e"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dest := newMemDestination()
	dest.onMutate = cancel
	engine := NewEngine(&stubSource{events: events}, dest, nil, Options{Concurrency: 1})

	result, err := engine.Run(ctx, RunOptions{Window: testWindow})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 4, result.Deferred)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "4 actions deferred")

	// The next run picks the deferred events up
	dest.onMutate = nil
	next := runOnce(t, engine, false)
	assert.Equal(t, 4, next.Created)
	assert.Len(t, dest.events, 5)
}

// TestEngine_PrepareThenApply tests the two-step flow used for confirmation prompts.
func TestEngine_PrepareThenApply(t *testing.T) {
	dest := newMemDestination()
	dest.events["X"] = event("gone", "old")
	engine := NewEngine(&stubSource{events: []CalendarEvent{event("a", "new")}}, dest, nil, Options{})

	plan, err := engine.Prepare(context.Background(), testWindow, "")
	require.NoError(t, err)
	assert.True(t, plan.HasDeletes())
	assert.Equal(t, 0, dest.mutations())

	result := engine.ApplyPlan(context.Background(), plan, RunOptions{Window: testWindow})
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Deleted)
	assert.False(t, result.FinishedAt.Before(result.StartedAt))
}

// TestEngine_Run_FilterIsForwarded tests that the text predicate reaches the source.
func TestEngine_Run_FilterIsForwarded(t *testing.T) {
	source := &stubSource{events: []CalendarEvent{event("a", "Standup"), event("b", "Lunch")}}
	dest := newMemDestination()

	result, err := NewEngine(source, dest, nil, Options{}).Run(context.Background(), RunOptions{Window: testWindow, Filter: "stand"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, []string{"a"}, dest.uids())
}

// TestEngine_Run_RescheduledIntoWindow tests that an event whose copy lies before the window
// is updated in place when it moves into the window, instead of gaining a second copy.
func TestEngine_Run_RescheduledIntoWindow(t *testing.T) {
	dest := newMemDestination()
	source := &stubSource{events: []CalendarEvent{eventAt("meet", "Meeting", time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC))}}
	engine := NewEngine(source, dest, nil, Options{})

	first, err := engine.Run(context.Background(), RunOptions{Window: Window{
		Start: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	source.events = []CalendarEvent{eventAt("meet", "Meeting", time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC))}
	second, err := engine.Run(context.Background(), RunOptions{Window: Window{
		Start: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Updated)
	assert.Equal(t, []string{"meet"}, dest.uids())
	assert.Equal(t, time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC), dest.events["dest-1"].Start)
}

// TestEngine_Run_ResolvedDuplicateCarriersRemoved tests that extra carriers found outside the window are deleted.
func TestEngine_Run_ResolvedDuplicateCarriersRemoved(t *testing.T) {
	dest := newMemDestination()
	dest.events["dest-a"] = eventAt("meet", "copy", time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC))
	dest.events["dest-b"] = eventAt("meet", "copy", time.Date(2024, 2, 21, 9, 0, 0, 0, time.UTC))

	source := &stubSource{events: []CalendarEvent{event("meet", "Meeting")}}
	result := runOnce(t, NewEngine(source, dest, nil, Options{}), false)

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Deleted)
	require.Len(t, dest.events, 1)
	assert.Equal(t, "Meeting", dest.events["dest-a"].Summary)
}

// TestEngine_Run_OutOfWindowCopyNotDeleted tests that a linked copy outside the window is left alone
// when its uid is absent from the fetch.
func TestEngine_Run_OutOfWindowCopyNotDeleted(t *testing.T) {
	dest := newMemDestination()
	dest.events["old"] = eventAt("past", "Past", time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC))

	result := runOnce(t, NewEngine(&stubSource{}, dest, nil, Options{}), false)

	assert.Equal(t, 0, result.Deleted)
	assert.Len(t, dest.events, 1)
	assert.Equal(t, 0, dest.resolveCalls)
}

// TestEngine_Run_ResolveErrorIsFatal tests that a failed out-of-window lookup aborts before any mutation.
func TestEngine_Run_ResolveErrorIsFatal(t *testing.T) {
	dest := newMemDestination()
	dest.resolveErr = errors.New("quota exceeded")

	source := &stubSource{events: []CalendarEvent{event("a", "new")}}
	result, err := NewEngine(source, dest, nil, Options{}).Run(context.Background(), RunOptions{Window: testWindow})

	var linkErr *LinkQueryError
	require.ErrorAs(t, err, &linkErr)
	assert.ErrorIs(t, err, dest.resolveErr)
	assert.Equal(t, 0, dest.mutations())
	require.Len(t, result.Errors, 1)
}

// TestEngine_Prepare_ResolvesOnlyUnlinkedUIDs tests that linked uids are not looked up again.
func TestEngine_Prepare_ResolvesOnlyUnlinkedUIDs(t *testing.T) {
	dest := newMemDestination()
	dest.events["X"] = event("linked", "in window")

	source := &stubSource{events: []CalendarEvent{event("linked", "in window")}}
	_, err := NewEngine(source, dest, nil, Options{}).Prepare(context.Background(), testWindow, "")
	require.NoError(t, err)
	assert.Equal(t, 0, dest.resolveCalls)

	source.events = append(source.events, event("fresh", "new"))
	plan, err := NewEngine(source, dest, nil, Options{}).Prepare(context.Background(), testWindow, "")
	require.NoError(t, err)
	assert.Equal(t, 1, dest.resolveCalls)
	assert.Equal(t, 1, plan.Summary.Creates)
	assert.Equal(t, 1, plan.Summary.Updates)
}
