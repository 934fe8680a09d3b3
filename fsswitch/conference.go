package fsswitch

import (
	"fmt"
	"strings"
)

// MuteAction selects a conference mute operation.
type MuteAction int

const (
	MuteActionMute MuteAction = iota
	MuteActionUnmute
)

func (a MuteAction) String() string {
	if a == MuteActionUnmute {
		return "unmute"
	}
	return "mute"
}

// ConferenceMute mutes or unmutes a conference member:
// "conference <name> <mute|unmute> <member_id>".
type ConferenceMute struct {
	Name     string
	Action   MuteAction
	MemberID string
}

func (c ConferenceMute) String() string {
	return fmt.Sprintf("conference %s %s %s", c.Name, c.Action, c.MemberID)
}

// HoldAction selects a conference hold operation.
type HoldAction int

const (
	HoldActionHold HoldAction = iota
	HoldActionUnhold
)

func (a HoldAction) String() string {
	if a == HoldActionUnhold {
		return "unhold"
	}
	return "hold"
}

// ConferenceHold places or releases hold for a conference member:
// "conference <name> <hold|unhold> <member> [stream]".
type ConferenceHold struct {
	Name      string
	Action    HoldAction
	Member    string
	Stream    string
	HasStream bool
}

func (c ConferenceHold) String() string {
	s := fmt.Sprintf("conference %s %s %s", c.Name, c.Action, c.Member)
	if c.HasStream {
		s += " " + c.Stream
	}
	return s
}

// ConferenceDtmf sends DTMF digits to a conference member:
// "conference <name> dtmf <member> <dtmf>".
type ConferenceDtmf struct {
	Name, Member, Dtmf string
}

func (c ConferenceDtmf) String() string {
	return fmt.Sprintf("conference %s dtmf %s %s", c.Name, c.Member, c.Dtmf)
}

// ParseConferenceDtmf parses "conference <name> dtmf <member> <dtmf>", the
// inverse of String.
func ParseConferenceDtmf(s string) (ConferenceDtmf, error) {
	fields := strings.Fields(s)
	if len(fields) != 5 || fields[0] != "conference" || fields[2] != "dtmf" {
		return ConferenceDtmf{}, &OriginateError{Kind: OriginateErrParseError, Message: "invalid conference dtmf command: " + s}
	}
	return ConferenceDtmf{Name: fields[1], Member: fields[3], Dtmf: fields[4]}, nil
}
