// Package database handles the run history database connection and schema inspection.
//
// It wraps GORM and supports two drivers: MySQL for shared deployments and SQLite
// for single-host installs and tests (Name ":memory:" gives a throwaway database).
// The database is optional; sync decisions never read from it.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns back the health check that verifies the
// sync_runs table matches what the history store writes.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logger.Warn("Run history disabled", zap.Error(err))
//	}
//
//	missing, err := database.MissingColumns(db, "sync_runs", []string{"run_id", "created"})
package database
