// Package config provides configuration management for calsync.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults come from the `default` struct tags of every
// section, and nested keys map to upper-case environment variables joined by
// underscores (source.calendar_path -> SOURCE_CALENDAR_PATH).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, shutdown timeout)
//   - Source: CalDAV endpoint, credentials and calendar path
//   - Destination: Google calendar id and credentials
//   - Sync: default window, concurrency, filter and timezone of runs
//   - Scheduler: cron expression for periodic runs
//   - Health: cache TTL of the health report
//   - Storage: S3/MinIO settings of the run report archive
//   - Log: Logging level and format
//   - Database: run history database (sqlite or MySQL)
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
