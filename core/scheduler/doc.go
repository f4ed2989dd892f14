// Package scheduler triggers periodic sync runs with robfig/cron.
//
// The scheduler owns a base context that is cancelled on Stop, so an in-flight
// run stops dispatching remaining actions and defers them to the next run.
// Overlapping ticks are skipped with cron.SkipIfStillRunning.
//
// # Usage
//
//	s, err := scheduler.New(cfg.Scheduler, func(ctx context.Context) {
//	    _, _ = svc.Trigger(ctx, calendar.RunRequest{Trigger: calendar.TriggerSchedule})
//	}, logger)
//	s.Start()
//	defer s.Stop(shutdownCtx)
package scheduler
