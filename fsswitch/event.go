/*
go-switch is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) Temlio Inc. All Rights Reserved.

Provides FreeSWITCH socket communication.

*/
package fsswitch

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// EventKind enumerates the canonical FreeSWITCH event names, matching the
// order from esl_event.h and switch_event.c's EVENT_NAMES[].
type EventKind int

const (
	EventCustom EventKind = iota
	EventClone
	EventChannelCreate
	EventChannelDestroy
	EventChannelState
	EventChannelCallstate
	EventChannelAnswer
	EventChannelHangup
	EventChannelHangupComplete
	EventChannelExecute
	EventChannelExecuteComplete
	EventChannelHold
	EventChannelUnhold
	EventChannelBridge
	EventChannelUnbridge
	EventChannelProgress
	EventChannelProgressMedia
	EventChannelOutgoing
	EventChannelPark
	EventChannelUnpark
	EventChannelApplication
	EventChannelOriginate
	EventChannelUuid
	EventApi
	EventLog
	EventInboundChan
	EventOutboundChan
	EventStartup
	EventShutdown
	EventPublish
	EventUnpublish
	EventTalk
	EventNotalk
	EventSessionCrash
	EventModuleLoad
	EventModuleUnload
	EventDtmf
	EventMessage
	EventPresenceIn
	EventNotifyIn
	EventPresenceOut
	EventPresenceProbe
	EventMessageWaiting
	EventMessageQuery
	EventRoster
	EventCodec
	EventBackgroundJob
	EventDetectedSpeech
	EventDetectedTone
	EventPrivateCommand
	EventHeartbeat
	EventTrap
	EventAddSchedule
	EventDelSchedule
	EventExeSchedule
	EventReSchedule
	EventReloadXml
	EventNotify
	EventPhoneFeature
	EventPhoneFeatureSubscribe
	EventSendMessage
	EventRecvMessage
	EventRequestParams
	EventChannelData
	EventGeneral
	EventCommand
	EventSessionHeartbeat
	EventClientDisconnected
	EventServerDisconnected
	EventSendInfo
	EventRecvInfo
	EventRecvRtcpMessage
	EventSendRtcpMessage
	EventCallSecure
	EventNat
	EventRecordStart
	EventRecordStop
	EventPlaybackStart
	EventPlaybackStop
	EventCallUpdate
	EventFailure
	EventSocketData
	EventMediaBugStart
	EventMediaBugStop
	EventConferenceDataQuery
	EventConferenceData
	EventCallSetupReq
	EventCallSetupResult
	EventCallDetail
	EventDeviceState
	EventText
	EventShutdownRequested
	EventAll
	EventStartRecording

	// EventKindCustom is not a wire name by itself: it is the value Kind
	// returns for a subclassed CUSTOM/CLONE event, composed with the
	// event's Event-Subclass header (e.g. "sofia::register"). This is the
	// Go rendering of the reference library's Custom(name) escape.
	EventKindCustom
)

var eventKindNames = [...]string{
	EventCustom:                 "CUSTOM",
	EventClone:                  "CLONE",
	EventChannelCreate:          "CHANNEL_CREATE",
	EventChannelDestroy:         "CHANNEL_DESTROY",
	EventChannelState:           "CHANNEL_STATE",
	EventChannelCallstate:       "CHANNEL_CALLSTATE",
	EventChannelAnswer:          "CHANNEL_ANSWER",
	EventChannelHangup:          "CHANNEL_HANGUP",
	EventChannelHangupComplete:  "CHANNEL_HANGUP_COMPLETE",
	EventChannelExecute:         "CHANNEL_EXECUTE",
	EventChannelExecuteComplete: "CHANNEL_EXECUTE_COMPLETE",
	EventChannelHold:            "CHANNEL_HOLD",
	EventChannelUnhold:          "CHANNEL_UNHOLD",
	EventChannelBridge:          "CHANNEL_BRIDGE",
	EventChannelUnbridge:        "CHANNEL_UNBRIDGE",
	EventChannelProgress:        "CHANNEL_PROGRESS",
	EventChannelProgressMedia:   "CHANNEL_PROGRESS_MEDIA",
	EventChannelOutgoing:        "CHANNEL_OUTGOING",
	EventChannelPark:            "CHANNEL_PARK",
	EventChannelUnpark:          "CHANNEL_UNPARK",
	EventChannelApplication:     "CHANNEL_APPLICATION",
	EventChannelOriginate:       "CHANNEL_ORIGINATE",
	EventChannelUuid:            "CHANNEL_UUID",
	EventApi:                    "API",
	EventLog:                    "LOG",
	EventInboundChan:            "INBOUND_CHAN",
	EventOutboundChan:           "OUTBOUND_CHAN",
	EventStartup:                "STARTUP",
	EventShutdown:               "SHUTDOWN",
	EventPublish:                "PUBLISH",
	EventUnpublish:              "UNPUBLISH",
	EventTalk:                   "TALK",
	EventNotalk:                 "NOTALK",
	EventSessionCrash:           "SESSION_CRASH",
	EventModuleLoad:             "MODULE_LOAD",
	EventModuleUnload:           "MODULE_UNLOAD",
	EventDtmf:                   "DTMF",
	EventMessage:                "MESSAGE",
	EventPresenceIn:             "PRESENCE_IN",
	EventNotifyIn:               "NOTIFY_IN",
	EventPresenceOut:            "PRESENCE_OUT",
	EventPresenceProbe:          "PRESENCE_PROBE",
	EventMessageWaiting:         "MESSAGE_WAITING",
	EventMessageQuery:           "MESSAGE_QUERY",
	EventRoster:                 "ROSTER",
	EventCodec:                  "CODEC",
	EventBackgroundJob:          "BACKGROUND_JOB",
	EventDetectedSpeech:         "DETECTED_SPEECH",
	EventDetectedTone:           "DETECTED_TONE",
	EventPrivateCommand:         "PRIVATE_COMMAND",
	EventHeartbeat:              "HEARTBEAT",
	EventTrap:                   "TRAP",
	EventAddSchedule:            "ADD_SCHEDULE",
	EventDelSchedule:            "DEL_SCHEDULE",
	EventExeSchedule:            "EXE_SCHEDULE",
	EventReSchedule:             "RE_SCHEDULE",
	EventReloadXml:              "RELOADXML",
	EventNotify:                 "NOTIFY",
	EventPhoneFeature:           "PHONE_FEATURE",
	EventPhoneFeatureSubscribe:  "PHONE_FEATURE_SUBSCRIBE",
	EventSendMessage:            "SEND_MESSAGE",
	EventRecvMessage:            "RECV_MESSAGE",
	EventRequestParams:          "REQUEST_PARAMS",
	EventChannelData:            "CHANNEL_DATA",
	EventGeneral:                "GENERAL",
	EventCommand:                "COMMAND",
	EventSessionHeartbeat:       "SESSION_HEARTBEAT",
	EventClientDisconnected:     "CLIENT_DISCONNECTED",
	EventServerDisconnected:     "SERVER_DISCONNECTED",
	EventSendInfo:               "SEND_INFO",
	EventRecvInfo:               "RECV_INFO",
	EventRecvRtcpMessage:        "RECV_RTCP_MESSAGE",
	EventSendRtcpMessage:        "SEND_RTCP_MESSAGE",
	EventCallSecure:             "CALL_SECURE",
	EventNat:                    "NAT",
	EventRecordStart:            "RECORD_START",
	EventRecordStop:             "RECORD_STOP",
	EventPlaybackStart:          "PLAYBACK_START",
	EventPlaybackStop:           "PLAYBACK_STOP",
	EventCallUpdate:             "CALL_UPDATE",
	EventFailure:                "FAILURE",
	EventSocketData:             "SOCKET_DATA",
	EventMediaBugStart:          "MEDIA_BUG_START",
	EventMediaBugStop:           "MEDIA_BUG_STOP",
	EventConferenceDataQuery:    "CONFERENCE_DATA_QUERY",
	EventConferenceData:         "CONFERENCE_DATA",
	EventCallSetupReq:           "CALL_SETUP_REQ",
	EventCallSetupResult:        "CALL_SETUP_RESULT",
	EventCallDetail:             "CALL_DETAIL",
	EventDeviceState:            "DEVICE_STATE",
	EventText:                   "TEXT",
	EventShutdownRequested:      "SHUTDOWN_REQUESTED",
	EventAll:                    "ALL",
	EventStartRecording:         "START_RECORDING",
	EventKindCustom:             "CUSTOM",
}

var eventKindByName map[string]EventKind

func init() {
	eventKindByName = make(map[string]EventKind, len(eventKindNames))
	for kind, name := range eventKindNames {
		// EventKindCustom is a synthetic composed kind (CUSTOM/CLONE plus
		// Event-Subclass); it never appears literally as an Event-Name, so
		// it must not shadow EventCustom in the reverse lookup.
		if EventKind(kind) == EventKindCustom {
			continue
		}
		eventKindByName[name] = EventKind(kind)
	}
}

// String returns the canonical wire name for the event kind.
func (k EventKind) String() string {
	if int(k) < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

// ParseEventKind parses a wire event name case-insensitively.
func ParseEventKind(name string) (EventKind, bool) {
	kind, ok := eventKindByName[strings.ToUpper(name)]
	return kind, ok
}

// EventPriority mirrors FreeSWITCH's esl_priority_t.
type EventPriority int

const (
	PriorityNormal EventPriority = iota
	PriorityLow
	PriorityHigh
)

func (p EventPriority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityHigh:
		return "HIGH"
	default:
		return "NORMAL"
	}
}

// ParseEventPriority parses a priority header value case-insensitively.
func ParseEventPriority(s string) (EventPriority, bool) {
	switch strings.ToUpper(s) {
	case "NORMAL":
		return PriorityNormal, true
	case "LOW":
		return PriorityLow, true
	case "HIGH":
		return PriorityHigh, true
	default:
		return 0, false
	}
}

// EventHeader is a single ordered header entry.
type EventHeader struct {
	Name  string
	Value string
}

// Event represents a FreeSWITCH event: an ordered, possibly multi-valued
// header list plus an optional body.
type Event struct {
	headers []EventHeader
	index   map[string][]int
	body    []byte
	hasBody bool
}

// NewEvent returns an empty event.
func NewEvent() *Event {
	return &Event{index: make(map[string][]int)}
}

// NewEventWithKind returns an empty event with Event-Name pre-set.
func NewEventWithKind(kind EventKind) *Event {
	e := NewEvent()
	e.SetHeader("Event-Name", kind.String())
	return e
}

// Header returns the first value stored for name, if any.
func (e *Event) Header(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	idxs, ok := e.index[name]
	if !ok || len(idxs) == 0 {
		return "", false
	}
	return e.headers[idxs[0]].Value, true
}

// GetHeader returns the header value for key, or defaultValue if absent or
// empty —
// kept for callers migrating from the original positional accessor.
func (e *Event) GetHeader(key, defaultValue string) string {
	if v, ok := e.Header(key); ok && v != "" {
		return v
	}
	return defaultValue
}

// HeaderValues returns every value stored for name, in insertion order.
func (e *Event) HeaderValues(name string) []string {
	idxs, ok := e.index[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, e.headers[i].Value)
	}
	return out
}

// Headers returns all headers in insertion order.
func (e *Event) Headers() []EventHeader {
	return append([]EventHeader(nil), e.headers...)
}

// SetHeader overwrites any existing values for name with a single value.
func (e *Event) SetHeader(name, value string) {
	if idxs, ok := e.index[name]; ok {
		e.headers[idxs[0]].Value = value
		if len(idxs) > 1 {
			kept := make([]EventHeader, 0, len(e.headers)-len(idxs)+1)
			remove := make(map[int]bool, len(idxs)-1)
			for _, i := range idxs[1:] {
				remove[i] = true
			}
			for i, h := range e.headers {
				if !remove[i] {
					kept = append(kept, h)
				}
			}
			e.headers = kept
			e.reindex()
		}
		return
	}
	e.headers = append(e.headers, EventHeader{Name: name, Value: value})
	e.index[name] = []int{len(e.headers) - 1}
}

// DelHeader removes all values for name, returning the first if present.
func (e *Event) DelHeader(name string) (string, bool) {
	idxs, ok := e.index[name]
	if !ok {
		return "", false
	}
	first := e.headers[idxs[0]].Value
	remove := make(map[int]bool, len(idxs))
	for _, i := range idxs {
		remove[i] = true
	}
	kept := make([]EventHeader, 0, len(e.headers)-len(idxs))
	for i, h := range e.headers {
		if !remove[i] {
			kept = append(kept, h)
		}
	}
	e.headers = kept
	e.reindex()
	return first, true
}

func (e *Event) reindex() {
	e.index = make(map[string][]int, len(e.headers))
	for i, h := range e.headers {
		e.index[h.Name] = append(e.index[h.Name], i)
	}
}

// Body returns the event body and whether one is present.
func (e *Event) Body() ([]byte, bool) {
	if !e.hasBody {
		return nil, false
	}
	return e.body, true
}

// SetBody sets the event body.
func (e *Event) SetBody(body []byte) {
	e.body = body
	e.hasBody = true
}

// SetPriority sets the priority header.
func (e *Event) SetPriority(p EventPriority) {
	e.SetHeader("priority", p.String())
}

// Priority reads the priority header, defaulting to Normal when absent or
// unparseable.
func (e *Event) Priority() EventPriority {
	v, ok := e.Header("priority")
	if !ok {
		return PriorityNormal
	}
	p, ok := ParseEventPriority(v)
	if !ok {
		return PriorityNormal
	}
	return p
}

// PushHeader appends value to name using EslArray push semantics: absent
// headers become plain values, plain values become ARRAY::old|:new, and
// existing ARRAY:: headers gain a trailing entry.
func (e *Event) PushHeader(name, value string) {
	e.stackHeader(name, value, (*EslArray).Push)
}

// UnshiftHeader prepends value to name using EslArray unshift semantics.
func (e *Event) UnshiftHeader(name, value string) {
	e.stackHeader(name, value, (*EslArray).Unshift)
}

func (e *Event) stackHeader(name, value string, op func(*EslArray, string)) {
	existing, ok := e.Header(name)
	if !ok {
		e.SetHeader(name, value)
		return
	}
	arr, ok := ParseEslArray(existing)
	if !ok {
		arr = NewEslArray([]string{existing})
	}
	op(arr, value)
	e.SetHeader(name, arr.String())
}

// UniqueID returns Unique-ID, falling back to Caller-Unique-ID.
func (e *Event) UniqueID() (string, bool) {
	if v, ok := e.Header("Unique-ID"); ok {
		return v, true
	}
	return e.Header("Caller-Unique-ID")
}

// JobUUID returns the Job-UUID header of a background-job event.
func (e *Event) JobUUID() (string, bool) {
	return e.Header("Job-UUID")
}

// Subclass returns the Event-Subclass header, the payload carried by a
// composed EventKindCustom event.
func (e *Event) Subclass() (string, bool) {
	v, ok := e.Header("Event-Subclass")
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Kind parses the Event-Name header into an EventKind, composing in the
// Custom(name) escape: when Event-Name is CUSTOM or CLONE and
// Event-Subclass is present, Kind reports EventKindCustom instead of the
// bare CUSTOM/CLONE kind. Callers that need the subclass string itself
// should call Subclass, or use KindString for the wire-rendered form.
func (e *Event) Kind() (EventKind, bool) {
	name, ok := e.Header("Event-Name")
	if !ok {
		return 0, false
	}
	kind, ok := ParseEventKind(name)
	if !ok {
		return 0, false
	}
	if kind == EventCustom || kind == EventClone {
		if _, ok := e.Subclass(); ok {
			return EventKindCustom, true
		}
	}
	return kind, true
}

// IsKind reports whether the event's Kind matches kind.
func (e *Event) IsKind(kind EventKind) bool {
	k, ok := e.Kind()
	return ok && k == kind
}

// KindString renders the event's kind as it would appear as Event-Name on
// the wire: the canonical kind name, or the Event-Subclass value when Kind
// is EventKindCustom (e.g. "sofia::register" rather than bare "CUSTOM").
func (e *Event) KindString() string {
	kind, ok := e.Kind()
	if !ok {
		return ""
	}
	if kind == EventKindCustom {
		sub, _ := e.Subclass()
		return sub
	}
	return kind.String()
}

// GetInt returns an Event header value converted to int.
func (e *Event) GetInt(key string) (int, error) {
	v, _ := e.Header(key)
	return strconv.Atoi(v)
}

// ContentLength returns the parsed Content-Length header, defaulting to 0
// when absent or unparseable.
func (e *Event) ContentLength() int {
	v, ok := e.Header("Content-Length")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// ReplyText returns the Reply-Text header, or "" if absent.
func (e *Event) ReplyText() string {
	v, _ := e.Header("Reply-Text")
	return v
}

// IsReplyTextSuccess reports whether Reply-Text begins with "+OK".
func (e *Event) IsReplyTextSuccess() bool {
	return strings.HasPrefix(e.ReplyText(), "+OK")
}

// ContentType returns the Content-Type header, or "" if absent.
func (e *Event) ContentType() string {
	v, _ := e.Header("Content-Type")
	return v
}

// String serializes the event to ESL plain-text wire format with
// percent-encoded header values. This is the inverse of decodePlainEvent:
// feeding the output back through the codec reconstructs an equivalent
// Event. Event-Name is emitted first; remaining headers are sorted
// alphabetically for deterministic output. Content-Length is recomputed
// from the body rather than carried over from a stored header.
func (e *Event) String() string {
	var b strings.Builder

	if name, ok := e.Header("Event-Name"); ok {
		fmt.Fprintf(&b, "Event-Name: %s\n", url.QueryEscape(name))
	}

	type kv struct{ k, v string }
	var rest []kv
	for _, h := range e.headers {
		if h.Name == "Event-Name" || h.Name == "Content-Length" {
			continue
		}
		rest = append(rest, kv{h.Name, h.Value})
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].k < rest[j].k })
	for _, p := range rest {
		fmt.Fprintf(&b, "%s: %s\n", p.k, url.QueryEscape(p.v))
	}

	if e.hasBody {
		fmt.Fprintf(&b, "Content-Length: %d\n\n", len(e.body))
		b.Write(e.body)
	} else {
		b.WriteByte('\n')
	}

	return b.String()
}

// PrettyPrint renders the event's headers (sorted) and body for debugging.
func (e *Event) PrettyPrint() string {
	var b strings.Builder
	keys := make([]string, 0, len(e.index))
	for k := range e.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range e.HeaderValues(k) {
			fmt.Fprintf(&b, "%s: %#v\n", k, v)
		}
	}
	if e.hasBody {
		fmt.Fprintf(&b, "BODY: %#v\n", string(e.body))
	}
	return b.String()
}
