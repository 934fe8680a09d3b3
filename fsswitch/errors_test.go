package fsswitch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsConnectionErrorClassification(t *testing.T) {
	connectionKinds := []ErrorKind{
		ErrKindIO, ErrKindProtocolError, ErrKindNotConnected,
		ErrKindHeartbeatExpired, ErrKindUnexpectedReply, ErrKindQueueFull,
	}
	for _, k := range connectionKinds {
		require.True(t, (&Error{Kind: k}).IsConnectionError(), "kind %s", k)
	}

	notConnectionKinds := []ErrorKind{
		ErrKindAuthenticationFailed, ErrKindTimeout, ErrKindCommandFailed,
	}
	for _, k := range notConnectionKinds {
		require.False(t, (&Error{Kind: k}).IsConnectionError(), "kind %s", k)
	}
}

func TestIsRecoverableClassification(t *testing.T) {
	require.True(t, (&Error{Kind: ErrKindTimeout}).IsRecoverable())
	require.True(t, (&Error{Kind: ErrKindCommandFailed}).IsRecoverable())

	require.False(t, (&Error{Kind: ErrKindQueueFull}).IsRecoverable())
	require.False(t, (&Error{Kind: ErrKindIO}).IsRecoverable())
	require.False(t, (&Error{Kind: ErrKindProtocolError}).IsRecoverable())
}

func TestHeartbeatExpiredAndUnexpectedReplyConstructors(t *testing.T) {
	e := heartbeatExpired()
	require.Equal(t, ErrKindHeartbeatExpired, e.Kind)
	require.True(t, e.IsConnectionError())

	u := unexpectedReply("expected command/reply, got api/response")
	require.Equal(t, ErrKindUnexpectedReply, u.Kind)
	require.True(t, u.IsConnectionError())
}
