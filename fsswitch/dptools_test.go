package fsswitch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnswerHasNoArgs(t *testing.T) {
	a := Answer()
	require.Equal(t, "answer", a.App)
	require.False(t, a.HasArgs)
}

func TestHangupWithAndWithoutCause(t *testing.T) {
	h := Hangup("")
	require.Equal(t, "hangup", h.App)
	require.False(t, h.HasArgs)

	h = Hangup("NORMAL_CLEARING")
	require.True(t, h.HasArgs)
	require.Equal(t, "NORMAL_CLEARING", h.Args)
}

func TestPlaybackArgsIsFile(t *testing.T) {
	p := Playback("/tmp/welcome.wav")
	require.Equal(t, "playback", p.App)
	require.Equal(t, "/tmp/welcome.wav", p.Args)
	require.True(t, p.HasArgs)
}

func TestBridgeArgsIsDestination(t *testing.T) {
	b := Bridge("sofia/gateway/gw1/1000")
	require.Equal(t, "bridge", b.App)
	require.Equal(t, "sofia/gateway/gw1/1000", b.Args)
}

func TestSetVarFormatsKeyEqualsValue(t *testing.T) {
	s := SetVar("effective_caller_id_name", "John Doe")
	require.Equal(t, "set", s.App)
	require.Equal(t, "effective_caller_id_name=John Doe", s.Args)
}

func TestParkHasNoArgs(t *testing.T) {
	p := Park()
	require.Equal(t, "park", p.App)
	require.False(t, p.HasArgs)
}

func TestTransferOmitsEmptyDialplanAndContext(t *testing.T) {
	tr := Transfer("1000", "", "")
	require.Equal(t, "1000", tr.Args)

	tr = Transfer("1000", "XML", "default")
	require.Equal(t, "1000 XML default", tr.Args)
}

func TestSleepFormatsMilliseconds(t *testing.T) {
	s := Sleep(1500)
	require.Equal(t, "sleep", s.App)
	require.Equal(t, "1500", s.Args)
}

func TestConferenceMuteString(t *testing.T) {
	c := ConferenceMute{Name: "room1", Action: MuteActionMute, MemberID: "3"}
	require.Equal(t, "conference room1 mute 3", c.String())

	c.Action = MuteActionUnmute
	require.Equal(t, "conference room1 unmute 3", c.String())
}

func TestConferenceHoldStringWithAndWithoutStream(t *testing.T) {
	c := ConferenceHold{Name: "room1", Action: HoldActionHold, Member: "3"}
	require.Equal(t, "conference room1 hold 3", c.String())

	c.HasStream = true
	c.Stream = "local_stream://moh"
	require.Equal(t, "conference room1 hold 3 local_stream://moh", c.String())
}

func TestConferenceDtmfString(t *testing.T) {
	c := ConferenceDtmf{Name: "room1", Member: "3", Dtmf: "5"}
	require.Equal(t, "conference room1 dtmf 3 5", c.String())
}

func TestConferenceDtmfRoundTrip(t *testing.T) {
	want := ConferenceDtmf{Name: "room1", Member: "3", Dtmf: "5"}
	got, err := ParseConferenceDtmf(want.String())
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestParseConferenceDtmfRejectsMalformed(t *testing.T) {
	_, err := ParseConferenceDtmf("conference room1 mute 3")
	require.Error(t, err)
}

func TestUuidAnswerString(t *testing.T) {
	require.Equal(t, "uuid_answer abc-123", UuidAnswer{UUID: "abc-123"}.String())
}

func TestUuidBridgeString(t *testing.T) {
	require.Equal(t, "uuid_bridge abc-123 def-456", UuidBridge{UUID: "abc-123", Other: "def-456"}.String())
}

func TestUuidDeflectString(t *testing.T) {
	require.Equal(t, "uuid_deflect abc-123 sip:1000@host", UuidDeflect{UUID: "abc-123", URI: "sip:1000@host"}.String())
}

func TestUuidHoldStringOnAndOff(t *testing.T) {
	require.Equal(t, "uuid_hold abc-123", UuidHold{UUID: "abc-123"}.String())
	require.Equal(t, "uuid_hold off abc-123", UuidHold{UUID: "abc-123", Off: true}.String())
}

func TestUuidKillStringWithAndWithoutCause(t *testing.T) {
	require.Equal(t, "uuid_kill abc-123", UuidKill{UUID: "abc-123"}.String())
	require.Equal(t, "uuid_kill abc-123 NORMAL_CLEARING", UuidKill{UUID: "abc-123", Cause: "NORMAL_CLEARING", HasCause: true}.String())
}

func TestUuidKillRoundTrip(t *testing.T) {
	cases := []UuidKill{
		{UUID: "abc-123"},
		{UUID: "abc-123", Cause: "NORMAL_CLEARING", HasCause: true},
	}
	for _, want := range cases {
		got, err := ParseUuidKill(want.String())
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestParseUuidKillRejectsMalformed(t *testing.T) {
	_, err := ParseUuidKill("uuid_answer abc-123")
	require.Error(t, err)
}

func TestUuidGetVarString(t *testing.T) {
	require.Equal(t, "uuid_getvar abc-123 sip_call_id", UuidGetVar{UUID: "abc-123", Key: "sip_call_id"}.String())
}

func TestUuidSetVarString(t *testing.T) {
	require.Equal(t, "uuid_setvar abc-123 sip_call_id 42", UuidSetVar{UUID: "abc-123", Key: "sip_call_id", Value: "42"}.String())
}

func TestUuidTransferStringWithAndWithoutDialplan(t *testing.T) {
	require.Equal(t, "uuid_transfer abc-123 1000", UuidTransfer{UUID: "abc-123", Destination: "1000"}.String())
	require.Equal(t, "uuid_transfer abc-123 1000 XML", UuidTransfer{UUID: "abc-123", Destination: "1000", Dialplan: "XML", HasDialplan: true}.String())
}

func TestUuidSendDtmfString(t *testing.T) {
	require.Equal(t, "uuid_send_dtmf abc-123 1234", UuidSendDtmf{UUID: "abc-123", Dtmf: "1234"}.String())
}

func TestChannelTimetableExtractsCallerPrefix(t *testing.T) {
	e := NewEvent()
	e.SetHeader("Caller-Channel-Created-Time", "1000000")
	e.SetHeader("Caller-Channel-Answered-Time", "1000500")

	tt, ok := e.CallerTimetable()
	require.True(t, ok)
	require.NotNil(t, tt.Created)
	require.Equal(t, int64(1000000), *tt.Created)
	require.NotNil(t, tt.Answered)
	require.Equal(t, int64(1000500), *tt.Answered)
	require.Nil(t, tt.Hungup)
}

func TestChannelTimetableOtherLegPrefix(t *testing.T) {
	e := NewEvent()
	e.SetHeader("Other-Leg-Channel-Created-Time", "42")

	tt, ok := e.OtherLegTimetable()
	require.True(t, ok)
	require.Equal(t, int64(42), *tt.Created)
}

func TestChannelTimetableAbsentReturnsNotOK(t *testing.T) {
	e := NewEvent()
	_, ok := e.CallerTimetable()
	require.False(t, ok)
}

func TestChannelTimetableIgnoresUnparseableValue(t *testing.T) {
	e := NewEvent()
	e.SetHeader("Caller-Channel-Created-Time", "not-a-number")
	_, ok := e.CallerTimetable()
	require.False(t, ok)
}
