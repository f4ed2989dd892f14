// Package logger provides structured logging based on Zap.
//
// New builds a development (debug) or production logger, encoded as JSON or as
// colored console output. WithRayID attaches the request id set by the rayid
// middleware so that every log line of one HTTP request can be correlated.
//
// # Usage
//
//	log, err := logger.New(&cfg.Log)
//	log.Info("Sync run finished", zap.Int("created", result.Created))
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
