package caldav

import (
	"context"
	"errors"
	"net"
	"strings"

	"calsync/core/reconcile"
)

// authMarkers are fragments of CalDAV client errors caused by rejected credentials.
var authMarkers = []string{"401", "403", "unauthorized", "forbidden"}

// classify wraps err into a FetchError with the kind derived from its cause.
func classify(source string, err error) *reconcile.FetchError {
	kind := reconcile.FetchTransport

	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		kind = reconcile.FetchTransport
	case containsAny(strings.ToLower(err.Error()), authMarkers):
		kind = reconcile.FetchAuth
	}

	return &reconcile.FetchError{Source: source, Kind: kind, Err: err}
}

func parseError(source string, err error) *reconcile.FetchError {
	return &reconcile.FetchError{Source: source, Kind: reconcile.FetchParse, Err: err}
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
