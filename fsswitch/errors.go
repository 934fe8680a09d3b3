package fsswitch

import (
	"fmt"
	"time"
)

// ErrorKind classifies an Error for programmatic handling.
type ErrorKind int

const (
	ErrKindIO ErrorKind = iota
	ErrKindNotConnected
	ErrKindAuthenticationFailed
	ErrKindProtocolError
	ErrKindCommandFailed
	ErrKindTimeout
	ErrKindInvalidEventFormat
	ErrKindBufferOverflow
	ErrKindInvalidHeader
	ErrKindMissingHeader
	ErrKindConnectionClosed
	ErrKindInvalidUUID
	ErrKindQueueFull
	ErrKindUnexpectedReply
	ErrKindHeartbeatExpired
	ErrKindGeneric
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindIO:
		return "io"
	case ErrKindNotConnected:
		return "not_connected"
	case ErrKindAuthenticationFailed:
		return "authentication_failed"
	case ErrKindProtocolError:
		return "protocol_error"
	case ErrKindCommandFailed:
		return "command_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindInvalidEventFormat:
		return "invalid_event_format"
	case ErrKindBufferOverflow:
		return "buffer_overflow"
	case ErrKindInvalidHeader:
		return "invalid_header"
	case ErrKindMissingHeader:
		return "missing_header"
	case ErrKindConnectionClosed:
		return "connection_closed"
	case ErrKindInvalidUUID:
		return "invalid_uuid"
	case ErrKindQueueFull:
		return "queue_full"
	case ErrKindUnexpectedReply:
		return "unexpected_reply"
	case ErrKindHeartbeatExpired:
		return "heartbeat_expired"
	default:
		return "generic"
	}
}

// Error is the concrete error type returned by this package.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// IsConnectionError reports whether e indicates the transport itself is
// gone (as opposed to a recoverable protocol-level failure).
func (e *Error) IsConnectionError() bool {
	switch e.Kind {
	case ErrKindIO, ErrKindProtocolError, ErrKindNotConnected, ErrKindHeartbeatExpired,
		ErrKindUnexpectedReply, ErrKindQueueFull, ErrKindConnectionClosed:
		return true
	default:
		return false
	}
}

// IsRecoverable reports whether the caller can retry the operation that
// produced e without reconnecting.
func (e *Error) IsRecoverable() bool {
	switch e.Kind {
	case ErrKindTimeout, ErrKindCommandFailed:
		return true
	default:
		return false
	}
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// ErrNotConnected is returned by operations attempted before Connect
// completes or after disconnect.
var ErrNotConnected = newError(ErrKindNotConnected, "not connected to FreeSWITCH", nil)

// ErrConnectionClosed is returned when the remote end closes the socket.
var ErrConnectionClosed = newError(ErrKindConnectionClosed, "connection closed by FreeSWITCH", nil)

// ErrQueueFull is returned by an OverflowDisconnect event queue that cannot
// accept another event.
var ErrQueueFull = newError(ErrKindQueueFull, "event queue is full", nil)

func wrapIO(err error) *Error {
	return newError(ErrKindIO, "io error", err)
}

func authFailed(reason string) *Error {
	return newError(ErrKindAuthenticationFailed, fmt.Sprintf("authentication failed: %s", reason), nil)
}

func protocolError(message string) *Error {
	return newError(ErrKindProtocolError, fmt.Sprintf("protocol error: %s", message), nil)
}

// unexpectedReply reports that a reply frame's class did not match the
// pending slot it was popped against (protocol desynchronization).
func unexpectedReply(message string) *Error {
	return newError(ErrKindUnexpectedReply, fmt.Sprintf("unexpected reply: %s", message), nil)
}

// heartbeatExpired reports that the liveness timer fired with no complete
// inbound frame observed within the configured timeout.
func heartbeatExpired() *Error {
	return newError(ErrKindHeartbeatExpired, "liveness timeout expired", nil)
}

func commandFailed(replyText string) *Error {
	return newError(ErrKindCommandFailed, fmt.Sprintf("command failed: %s", replyText), nil)
}

func timeoutError(timeout time.Duration) *Error {
	return newError(ErrKindTimeout, fmt.Sprintf("operation timed out after %s", timeout), nil)
}

func invalidEventFormat(format string) *Error {
	return newError(ErrKindInvalidEventFormat, fmt.Sprintf("invalid event format: %s", format), nil)
}

func bufferOverflow(size, limit int) *Error {
	return newError(ErrKindBufferOverflow, fmt.Sprintf("buffer overflow: message size %d exceeds limit %d", size, limit), nil)
}

func missingHeader(header string) *Error {
	return newError(ErrKindMissingHeader, fmt.Sprintf("missing required header: %s", header), nil)
}

func genericError(message string) *Error {
	return newError(ErrKindGeneric, message, nil)
}
