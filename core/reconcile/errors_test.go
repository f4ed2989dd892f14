package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoteOperationError_Error(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, "create uid=a: boom", (&RemoteOperationError{Op: ActionCreate, SourceUID: "a", Err: cause}).Error())
	assert.Equal(t, "delete id=X: boom", (&RemoteOperationError{Op: ActionDelete, DestinationID: "X", Err: cause}).Error())
	assert.Equal(t, "update uid=a id=X: boom", (&RemoteOperationError{Op: ActionUpdate, SourceUID: "a", DestinationID: "X", Err: cause}).Error())
	assert.ErrorIs(t, &RemoteOperationError{Err: cause}, cause)
}

func TestAsRemoteOperationError_FillsIdentity(t *testing.T) {
	action := Action{Type: ActionDelete, SourceUID: "b", DestinationID: "X"}

	wrapped := asRemoteOperationError(action, &RemoteOperationError{Err: errors.New("gone")})
	assert.Equal(t, ActionDelete, wrapped.Op)
	assert.Equal(t, "b", wrapped.SourceUID)
	assert.Equal(t, "X", wrapped.DestinationID)

	plain := asRemoteOperationError(action, errors.New("timeout"))
	assert.Equal(t, "delete uid=b id=X: timeout", plain.Error())
}

func TestFetchAndLinkErrors(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	fe := asFetchError("caldav", cause)
	assert.Equal(t, FetchTransport, fe.Kind)
	assert.ErrorIs(t, fe, cause)
	assert.Equal(t, "fetch caldav (transport): dial tcp: refused", fe.Error())

	le := asLinkQueryError("google", cause)
	assert.ErrorIs(t, le, cause)
	assert.Equal(t, "list links on google: dial tcp: refused", le.Error())
}
