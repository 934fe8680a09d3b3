package fsswitch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEventKindCaseInsensitive(t *testing.T) {
	k, ok := ParseEventKind("channel_answer")
	require.True(t, ok)
	require.Equal(t, EventChannelAnswer, k)
	require.Equal(t, "CHANNEL_ANSWER", k.String())
}

func TestParseEventKindUnknownFails(t *testing.T) {
	_, ok := ParseEventKind("NOT_A_REAL_EVENT")
	require.False(t, ok)
}

func TestEventKindStringOutOfRange(t *testing.T) {
	require.Equal(t, "EventKind(9999)", EventKind(9999).String())
}

func TestEventSetHeaderOverwritesSingleValue(t *testing.T) {
	e := NewEvent()
	e.SetHeader("Event-Name", "CUSTOM")
	e.SetHeader("Event-Name", "HEARTBEAT")
	require.Equal(t, []EventHeader{{Name: "Event-Name", Value: "HEARTBEAT"}}, e.Headers())
}

func TestEventDelHeaderRemovesAllValues(t *testing.T) {
	e := NewEvent()
	e.PushHeader("k", "a")
	e.PushHeader("k", "b")
	first, ok := e.DelHeader("k")
	require.True(t, ok)
	require.Equal(t, "a", first)
	_, ok = e.Header("k")
	require.False(t, ok)
}

func TestEventPriorityDefaultsToNormal(t *testing.T) {
	e := NewEvent()
	require.Equal(t, PriorityNormal, e.Priority())

	e.SetPriority(PriorityHigh)
	require.Equal(t, PriorityHigh, e.Priority())
	v, _ := e.Header("priority")
	require.Equal(t, "HIGH", v)
}

func TestEventUniqueIDFallsBackToCallerUniqueID(t *testing.T) {
	e := NewEvent()
	e.SetHeader("Caller-Unique-ID", "abc-123")
	id, ok := e.UniqueID()
	require.True(t, ok)
	require.Equal(t, "abc-123", id)

	e.SetHeader("Unique-ID", "def-456")
	id, ok = e.UniqueID()
	require.True(t, ok)
	require.Equal(t, "def-456", id)
}

func TestEventKindAndIsKind(t *testing.T) {
	e := NewEventWithKind(EventChannelHangup)
	k, ok := e.Kind()
	require.True(t, ok)
	require.Equal(t, EventChannelHangup, k)
	require.True(t, e.IsKind(EventChannelHangup))
	require.False(t, e.IsKind(EventChannelAnswer))
}

func TestEventKindComposesSubclassEscape(t *testing.T) {
	e := NewEventWithKind(EventCustom)
	e.SetHeader("Event-Subclass", "sofia::register")

	k, ok := e.Kind()
	require.True(t, ok)
	require.Equal(t, EventKindCustom, k)
	require.True(t, e.IsKind(EventKindCustom))
	require.False(t, e.IsKind(EventCustom))

	sub, ok := e.Subclass()
	require.True(t, ok)
	require.Equal(t, "sofia::register", sub)
	require.Equal(t, "sofia::register", e.KindString())
}

func TestEventKindPlainCustomWithoutSubclass(t *testing.T) {
	e := NewEventWithKind(EventCustom)
	k, ok := e.Kind()
	require.True(t, ok)
	require.Equal(t, EventCustom, k)
	require.Equal(t, "CUSTOM", e.KindString())

	_, ok = e.Subclass()
	require.False(t, ok)
}

func TestParseEventKindCustomIsUnreachableByName(t *testing.T) {
	_, ok := ParseEventKind("CUSTOM")
	require.True(t, ok)
	k, _ := ParseEventKind("CUSTOM")
	require.Equal(t, EventCustom, k, "bare CUSTOM must still resolve to EventCustom, not the synthetic EventKindCustom")
}

func TestEventStringSerializesAndIsReparsable(t *testing.T) {
	e := NewEventWithKind(EventChannelAnswer)
	e.SetHeader("Unique-ID", "abc-123")
	e.SetHeader("Caller-Caller-ID-Name", "John Doe")
	e.SetBody([]byte("hello world"))

	wire := e.String()

	f := frameFromPlainBody([]byte(wire))
	reparsed, err := decodePlainEvent(f)
	require.NoError(t, err)

	name, ok := reparsed.Header("Event-Name")
	require.True(t, ok)
	require.Equal(t, "CHANNEL_ANSWER", name)
	id, ok := reparsed.Header("Unique-ID")
	require.True(t, ok)
	require.Equal(t, "abc-123", id)
	caller, ok := reparsed.Header("Caller-Caller-ID-Name")
	require.True(t, ok)
	require.Equal(t, "John Doe", caller)
	body, ok := reparsed.Body()
	require.True(t, ok)
	require.Equal(t, "hello world", string(body))
}

// frameFromPlainBody wraps a serialized event as the nested body of a
// text/event-plain frame, mirroring what a real server sends.
func frameFromPlainBody(body []byte) *Frame {
	return &Frame{
		ContentType: ContentTypeTextEventPlain,
		Kind:        MessageEvent,
		HasBody:     true,
		Body:        body,
	}
}

func TestEventContentLengthDefaultsToZero(t *testing.T) {
	e := NewEvent()
	require.Equal(t, 0, e.ContentLength())
	e.SetHeader("Content-Length", "42")
	require.Equal(t, 42, e.ContentLength())
}

func TestEventReplyTextSuccess(t *testing.T) {
	e := NewEvent()
	e.SetHeader("Reply-Text", "+OK accepted")
	require.True(t, e.IsReplyTextSuccess())
	e.SetHeader("Reply-Text", "-ERR no such channel")
	require.False(t, e.IsReplyTextSuccess())
}
