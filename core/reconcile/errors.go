package reconcile

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned when a window cannot be built or is inverted.
var ErrInvalidWindow = errors.New("invalid sync window")

// FetchKind classifies source failures. The engine treats all kinds as fatal.
type FetchKind string

const (
	FetchAuth      FetchKind = "auth"
	FetchTransport FetchKind = "transport"
	FetchParse     FetchKind = "parse"
)

// FetchError is returned when the source cannot be read. It aborts the run.
type FetchError struct {
	Source string
	Kind   FetchKind
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// LinkQueryError is returned when existing links cannot be listed. It aborts the run.
type LinkQueryError struct {
	Destination string
	Err         error
}

func (e *LinkQueryError) Error() string {
	return fmt.Sprintf("list links on %s: %v", e.Destination, e.Err)
}

func (e *LinkQueryError) Unwrap() error { return e.Err }

// RemoteOperationError describes one failed create, update or delete.
// It is recorded in the run result and never aborts the run.
type RemoteOperationError struct {
	Op            ActionType
	SourceUID     string
	DestinationID string
	Err           error
}

func (e *RemoteOperationError) Error() string {
	switch {
	case e.DestinationID == "":
		return fmt.Sprintf("%s uid=%s: %v", e.Op, e.SourceUID, e.Err)
	case e.SourceUID == "":
		return fmt.Sprintf("%s id=%s: %v", e.Op, e.DestinationID, e.Err)
	default:
		return fmt.Sprintf("%s uid=%s id=%s: %v", e.Op, e.SourceUID, e.DestinationID, e.Err)
	}
}

func (e *RemoteOperationError) Unwrap() error { return e.Err }

// asFetchError keeps adapter-provided classification and wraps anything else as transport.
func asFetchError(source string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Source: source, Kind: FetchTransport, Err: err}
}

func asLinkQueryError(destination string, err error) *LinkQueryError {
	var le *LinkQueryError
	if errors.As(err, &le) {
		return le
	}
	return &LinkQueryError{Destination: destination, Err: err}
}

// asRemoteOperationError fills in the identity context the engine knows about the action.
func asRemoteOperationError(action Action, err error) *RemoteOperationError {
	var re *RemoteOperationError
	if errors.As(err, &re) {
		if re.SourceUID == "" {
			re.SourceUID = action.SourceUID
		}
		if re.DestinationID == "" {
			re.DestinationID = action.DestinationID
		}
		if re.Op == "" {
			re.Op = action.Type
		}
		return re
	}
	return &RemoteOperationError{
		Op:            action.Type,
		SourceUID:     action.SourceUID,
		DestinationID: action.DestinationID,
		Err:           err,
	}
}
