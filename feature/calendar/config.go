package calendar

// Config holds configuration for sync runs.
type Config struct {
	// WindowDays is the default number of days after today a run covers.
	WindowDays int `mapstructure:"window_days" default:"30"`
	// Concurrency bounds the destination mutations in flight during one run.
	Concurrency int `mapstructure:"concurrency" default:"4"`
	// SkipUnchanged skips updates whose content hash matches the stamped hash.
	SkipUnchanged bool `mapstructure:"skip_unchanged" default:"false"`
	// Filter is the default text predicate applied to source events.
	Filter string `mapstructure:"filter" default:""`
	// Timezone decides where "today" starts when building the window.
	Timezone string `mapstructure:"timezone" default:"UTC"`
	// RunTimeoutSeconds bounds one run. Actions not dispatched in time are deferred.
	RunTimeoutSeconds int `mapstructure:"run_timeout_seconds" default:"600"`
}
