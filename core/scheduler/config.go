package scheduler

// Config holds configuration for periodic sync runs.
type Config struct {
	// Enabled starts the cron scheduler together with the HTTP server.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Spec is a standard five-field cron expression.
	Spec string `mapstructure:"spec" default:"*/15 * * * *"`
	// Timezone is the IANA location the cron expression is evaluated in.
	Timezone string `mapstructure:"timezone" default:"UTC"`
}
