// Package reconcile implements one-directional calendar reconciliation: a read-only
// source calendar is mirrored into a mutable destination calendar.
//
// There is no local sync state. The destination is the source of truth for what was
// already synced: every event the engine creates carries provenance metadata (the
// source uid and an origin tag) and links are rediscovered from that metadata at the
// start of every run.
//
// # Architecture
//
// 1. Source: fetches normalized CalendarEvents for a Window.
//
// 2. Destination: lists links and creates, updates or deletes tagged events.
//
// 3. BuildPlan: pure diff of fetched events against links. Unlinked uids are created,
// linked uids are updated (or skipped when change detection finds identical content),
// and linked uids absent from the fetch are deleted.
//
// 4. Engine: runs fetch, link discovery, planning and application, aggregating the
// outcome into a SyncResult. A failed create, update or delete is recorded and the run
// continues. A failed fetch or link query aborts the run before any mutation.
//
// # Usage Example
//
//	engine := reconcile.NewEngine(source, destination, logger, reconcile.Options{Concurrency: 4})
//	window, err := reconcile.WindowFromDays(time.Now(), 30, time.UTC)
//	if err != nil {
//	    return err
//	}
//	result, err := engine.Run(ctx, reconcile.RunOptions{Window: window})
//
// The Plan can be inspected before it is applied:
//
//	plan, err := engine.Prepare(ctx, window, "")
//	// ... confirm plan.Summary.Deletes ...
//	result := engine.ApplyPlan(ctx, plan, reconcile.RunOptions{Window: window})
package reconcile
