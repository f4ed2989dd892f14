// Package server holds the HTTP server configuration.
//
// The Fiber application itself is assembled in cmd/start.go; this package only
// describes where it listens, how requests are authenticated and how long a
// graceful shutdown may take.
package server
