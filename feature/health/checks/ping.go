package checks

import (
	"context"
	"time"
)

// Pinger is implemented by the calendar adapters.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckPing verifies that a remote calendar answers with the configured credentials.
func CheckPing(ctx context.Context, name string, p Pinger) Result {
	if p == nil {
		return disabled(name)
	}
	started := time.Now()
	return finish(name, started, p.Ping(ctx))
}
