package fsswitch

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func readOneFrame(t *testing.T, wire string) *Frame {
	t.Helper()
	fr := NewFrameReader(strings.NewReader(wire))
	f, err := fr.ReadFrame()
	require.NoError(t, err)
	return f
}

func TestReadFrameCommandReplyNoBody(t *testing.T) {
	f := readOneFrame(t, "Content-Type: command/reply\nReply-Text: +OK accepted\n\n")
	require.Equal(t, MessageCommandReply, f.Kind)
	require.False(t, f.HasBody)
	v, ok := f.Header(HeaderReplyText)
	require.True(t, ok)
	require.Equal(t, "+OK accepted", v)
	require.True(t, f.IsSuccess())
}

func TestReadFramePreservesExactHeaderCase(t *testing.T) {
	wire := "Content-Type: command/reply\nReply-Text: +OK\nJob-UUID: abc-123\n\n"
	f := readOneFrame(t, wire)
	v, ok := f.Header(HeaderJobUUID)
	require.True(t, ok, "Job-UUID header must be found under its exact wire name, not a MIME-canonicalized variant")
	require.Equal(t, "abc-123", v)
}

func TestReadFrameWithContentLengthBody(t *testing.T) {
	body := "api response text\n"
	wire := "Content-Type: api/response\nContent-Length: " + strconv.Itoa(len(body)) + "\n\n" + body
	f := readOneFrame(t, wire)
	require.Equal(t, MessageApiResponse, f.Kind)
	require.True(t, f.HasBody)
	require.Equal(t, body, string(f.Body))
}

func TestReadFrameSequentialFramesOnSharedReader(t *testing.T) {
	wire := "Content-Type: command/reply\nReply-Text: +OK one\n\n" +
		"Content-Type: command/reply\nReply-Text: +OK two\n\n"
	fr := NewFrameReader(strings.NewReader(wire))

	f1, err := fr.ReadFrame()
	require.NoError(t, err)
	v1, _ := f1.Header(HeaderReplyText)
	require.Equal(t, "+OK one", v1)

	f2, err := fr.ReadFrame()
	require.NoError(t, err)
	v2, _ := f2.Header(HeaderReplyText)
	require.Equal(t, "+OK two", v2)
}

func TestReadFrameRejectsOversizedContentLength(t *testing.T) {
	wire := "Content-Type: api/response\nContent-Length: 999999999\n\n"
	fr := NewFrameReader(strings.NewReader(wire))
	_, err := fr.ReadFrame()
	require.Error(t, err)
}

func TestDecodeEventPayloadPlainNestedHeaders(t *testing.T) {
	inner := "Event-Name: CHANNEL_ANSWER\nUnique-ID: 11111111-1111-1111-1111-111111111111\nJob-UUID: 22222222-2222-2222-2222-222222222222\n\n"
	f := &Frame{
		ContentType: ContentTypeTextEventPlain,
		Kind:        MessageEvent,
		HasBody:     true,
		Body:        []byte(inner),
	}
	ev, err := DecodeEventPayload(f, FormatPlain)
	require.NoError(t, err)

	name, ok := ev.Header("Event-Name")
	require.True(t, ok)
	require.Equal(t, "CHANNEL_ANSWER", name)

	uid, ok := ev.UniqueID()
	require.True(t, ok)
	require.Equal(t, "11111111-1111-1111-1111-111111111111", uid)

	job, ok := ev.JobUUID()
	require.True(t, ok)
	require.Equal(t, "22222222-2222-2222-2222-222222222222", job)
}

func TestDecodeEventPayloadPlainWithNestedBody(t *testing.T) {
	nestedBody := "hello"
	inner := "Event-Name: CUSTOM\nContent-Length: " + strconv.Itoa(len(nestedBody)) + "\n\n" + nestedBody
	f := &Frame{ContentType: ContentTypeTextEventPlain, Kind: MessageEvent, HasBody: true, Body: []byte(inner)}

	ev, err := DecodeEventPayload(f, FormatPlain)
	require.NoError(t, err)
	body, ok := ev.Body()
	require.True(t, ok)
	require.Equal(t, nestedBody, string(body))
}

func TestDecodeEventPayloadJSON(t *testing.T) {
	f := &Frame{
		ContentType: ContentTypeTextEventJson,
		Kind:        MessageEvent,
		HasBody:     true,
		Body:        []byte(`{"Event-Name":"HEARTBEAT","Event-Sequence":"42","_body":"payload"}`),
	}
	ev, err := DecodeEventPayload(f, FormatJSON)
	require.NoError(t, err)
	name, _ := ev.Header("Event-Name")
	require.Equal(t, "HEARTBEAT", name)
	seq, _ := ev.Header("Event-Sequence")
	require.Equal(t, "42", seq)
	body, ok := ev.Body()
	require.True(t, ok)
	require.Equal(t, "payload", string(body))
}

func TestDecodeEventPayloadXML(t *testing.T) {
	f := &Frame{
		ContentType: ContentTypeTextEventXml,
		Kind:        MessageEvent,
		HasBody:     true,
		Body: []byte(`<event>` +
			`<header name="Event-Name" value="HEARTBEAT"/>` +
			`<header name="Unique-ID" value="abc-123"/>` +
			`<body>hello world</body>` +
			`</event>`),
	}
	ev, err := DecodeEventPayload(f, FormatXML)
	require.NoError(t, err)
	name, _ := ev.Header("Event-Name")
	require.Equal(t, "HEARTBEAT", name)
	id, _ := ev.Header("Unique-ID")
	require.Equal(t, "abc-123", id)
	body, ok := ev.Body()
	require.True(t, ok)
	require.Equal(t, "hello world", string(body))
}

func TestDecodeEventPayloadXMLWithoutBody(t *testing.T) {
	f := &Frame{
		ContentType: ContentTypeTextEventXml,
		Kind:        MessageEvent,
		HasBody:     true,
		Body:        []byte(`<event><header name="Event-Name" value="HEARTBEAT"/></event>`),
	}
	ev, err := DecodeEventPayload(f, FormatXML)
	require.NoError(t, err)
	_, ok := ev.Body()
	require.False(t, ok)
}

func TestEventJSONRoundTrip(t *testing.T) {
	e := NewEventWithKind(EventChannelAnswer)
	e.SetHeader("Unique-ID", "abc-123")
	e.SetHeader("Event-Sequence", "42")
	e.SetBody([]byte("hello world"))

	wire, err := e.ToJSON()
	require.NoError(t, err)

	f := &Frame{ContentType: ContentTypeTextEventJson, Kind: MessageEvent, HasBody: true, Body: []byte(wire)}
	reparsed, err := DecodeEventPayload(f, FormatJSON)
	require.NoError(t, err)

	name, _ := reparsed.Header("Event-Name")
	require.Equal(t, "CHANNEL_ANSWER", name)
	seq, _ := reparsed.Header("Event-Sequence")
	require.Equal(t, "42", seq)
	body, ok := reparsed.Body()
	require.True(t, ok)
	require.Equal(t, "hello world", string(body))
}

func TestEventXMLRoundTrip(t *testing.T) {
	e := NewEventWithKind(EventChannelAnswer)
	e.SetHeader("Unique-ID", "abc-123")
	e.SetBody([]byte("hello world"))

	wire, err := e.ToXML()
	require.NoError(t, err)

	f := &Frame{ContentType: ContentTypeTextEventXml, Kind: MessageEvent, HasBody: true, Body: []byte(wire)}
	reparsed, err := DecodeEventPayload(f, FormatXML)
	require.NoError(t, err)

	name, _ := reparsed.Header("Event-Name")
	require.Equal(t, "CHANNEL_ANSWER", name)
	id, _ := reparsed.Header("Unique-ID")
	require.Equal(t, "abc-123", id)
	body, ok := reparsed.Body()
	require.True(t, ok)
	require.Equal(t, "hello world", string(body))
}
