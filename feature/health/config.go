package health

// Config holds configuration for the health endpoint.
type Config struct {
	// CacheTTLSeconds is how long a health report is served before the checks run again.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"30"`
	// TimeoutSeconds bounds one round of checks.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
}
