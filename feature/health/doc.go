// Package health provides the dependency health report.
//
// # Checks Provided
//
//   - source: the CalDAV server answers a principal lookup with the configured credentials.
//   - destination: the Google calendar can be read.
//   - history: the sync_runs table has every expected column.
//   - archive: the report bucket exists.
//
// Components that are not configured are reported as "disabled" and do not
// degrade the overall status. Reports are cached for a TTL and concurrent
// requests share one round of checks.
//
// # HTTP Endpoints
//
//   - GET /health : Runs all checks (supports ?refresh=true).
package health
